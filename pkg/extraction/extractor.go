package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"medibuddy-be/pkg/llm"
)

// ErrExtractionFailed is returned when the model cannot produce usable
// structured data from a document. Nothing gets indexed in that case.
var ErrExtractionFailed = errors.New("prescription extraction failed")

const extractionPrompt = `You are a medical prescription parser.
Extract the prescription below into JSON with this exact schema:
{"date": "", "medicines": [{"name": "", "quantity": "", "timing": {"morning": "", "afternoon": "", "night": "", "instruction": ""}, "frequency": "", "duration": ""}], "notes": ""}
Use empty strings for fields you cannot read. Respond with ONLY the JSON. No other text.

Prescription:
%s`

// Extractor turns raw prescription text into structured data via an LLM
// structured-output call.
type Extractor struct {
	provider llm.LLMProvider
}

func NewExtractor(provider llm.LLMProvider) *Extractor {
	return &Extractor{provider: provider}
}

func (e *Extractor) Extract(ctx context.Context, documentText string) (*PrescriptionData, error) {
	raw, err := e.provider.Generate(ctx, fmt.Sprintf(extractionPrompt, documentText), llm.WithTemperature(0.1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	data, err := parseExtractionResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	return data, nil
}

// parseExtractionResponse strips the markdown fences models like to wrap JSON
// in, then parses strictly.
func parseExtractionResponse(raw string) (*PrescriptionData, error) {
	responseBytes := []byte(raw)
	responseBytes = bytes.TrimSpace(responseBytes)
	responseBytes = bytes.TrimPrefix(responseBytes, []byte("```json"))
	responseBytes = bytes.TrimPrefix(responseBytes, []byte("```"))
	responseBytes = bytes.TrimSuffix(responseBytes, []byte("```"))
	responseBytes = bytes.TrimSpace(responseBytes)

	var data PrescriptionData
	if err := json.Unmarshal(responseBytes, &data); err != nil {
		return nil, fmt.Errorf("parse error: %v | raw: %s", err, string(responseBytes))
	}

	if len(data.Medicines) == 0 && data.Notes == "" && data.Date == "" {
		return nil, errors.New("empty extraction result")
	}

	return &data, nil
}
