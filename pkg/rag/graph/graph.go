package graph

import (
	"context"
	"errors"
	"log"

	"medibuddy-be/pkg/llm"
	"medibuddy-be/pkg/rag"
	"medibuddy-be/pkg/rag/retrieval"
	"medibuddy-be/pkg/rag/scope"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
)

// Node keys of the conversation graph.
const (
	NodeResolveScope = "resolve_scope"
	NodeRetrieve     = "retrieve"
	NodeGenerate     = "generate"
)

// ChatState flows through the graph for one turn. Inputs are set by the chat
// service; each node writes exactly one of the output fields and never
// mutates the inputs. A fresh state is built per invocation, so a single
// compiled graph serves concurrent turns.
type ChatState struct {
	// Inputs.
	Question       string
	UserID         uuid.UUID
	PrescriptionID *uuid.UUID
	Language       rag.Language
	History        []llm.Message

	// Written by resolve_scope.
	Scope scope.Scope

	// Written by retrieve.
	Chunks []retrieval.Chunk

	// Written by generate.
	Answer string
}

// Retriever is the graph's view of the retrieval component.
type Retriever interface {
	Retrieve(ctx context.Context, sc scope.Scope, question string) ([]retrieval.Chunk, error)
}

// Generator is the graph's view of the answer component.
type Generator interface {
	Generate(ctx context.Context, question string, lang rag.Language, chunks []retrieval.Chunk, history []llm.Message) (string, error)
}

// Engine is the compiled conversation graph:
// START -> resolve_scope -> retrieve -> generate -> END.
type Engine struct {
	runnable compose.Runnable[*ChatState, *ChatState]
	logger   *log.Logger
}

// NewEngine builds and compiles the graph once. The returned engine is safe
// for concurrent use.
func NewEngine(ctx context.Context, retriever Retriever, generator Generator, logger *log.Logger) (*Engine, error) {
	if retriever == nil || generator == nil {
		return nil, errors.New("graph: retriever and generator are required")
	}

	g := compose.NewGraph[*ChatState, *ChatState]()

	resolveScope := func(ctx context.Context, state *ChatState) (*ChatState, error) {
		state.Scope = scope.Resolve(state.UserID, state.PrescriptionID)
		return state, nil
	}

	retrieve := func(ctx context.Context, state *ChatState) (*ChatState, error) {
		chunks, err := retriever.Retrieve(ctx, state.Scope, state.Question)
		if err != nil {
			return nil, err
		}
		state.Chunks = chunks
		return state, nil
	}

	generate := func(ctx context.Context, state *ChatState) (*ChatState, error) {
		answer, err := generator.Generate(ctx, state.Question, state.Language, state.Chunks, state.History)
		if err != nil {
			return nil, err
		}
		state.Answer = answer
		return state, nil
	}

	if err := g.AddLambdaNode(NodeResolveScope, compose.InvokableLambda(resolveScope)); err != nil {
		return nil, err
	}
	if err := g.AddLambdaNode(NodeRetrieve, compose.InvokableLambda(retrieve)); err != nil {
		return nil, err
	}
	if err := g.AddLambdaNode(NodeGenerate, compose.InvokableLambda(generate)); err != nil {
		return nil, err
	}

	if err := g.AddEdge(compose.START, NodeResolveScope); err != nil {
		return nil, err
	}
	if err := g.AddEdge(NodeResolveScope, NodeRetrieve); err != nil {
		return nil, err
	}
	if err := g.AddEdge(NodeRetrieve, NodeGenerate); err != nil {
		return nil, err
	}
	if err := g.AddEdge(NodeGenerate, compose.END); err != nil {
		return nil, err
	}

	runnable, err := g.Compile(ctx, compose.WithGraphName("prescription-chat"))
	if err != nil {
		return nil, err
	}

	return &Engine{runnable: runnable, logger: logger}, nil
}

// Answer runs one turn through the graph. A node failure aborts the turn and
// surfaces the node's error untouched, so callers can errors.Is against the
// retrieval/generation sentinels.
func (e *Engine) Answer(ctx context.Context, state *ChatState) (string, error) {
	result, err := e.runnable.Invoke(ctx, state)
	if err != nil {
		e.logger.Printf("[GRAPH] turn aborted: %v", err)
		return "", err
	}
	return result.Answer, nil
}
