package answer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"medibuddy-be/pkg/llm"
	"medibuddy-be/pkg/rag"
	"medibuddy-be/pkg/rag/retrieval"
)

// noInfoAnswers are the deterministic replies used when retrieval found
// nothing. They are rendered without calling the model so an empty index can
// never produce a fabricated medicine.
var noInfoAnswers = map[rag.Language]string{
	rag.LanguageEnglish:   "I could not find any relevant information in your prescriptions to answer that.",
	rag.LanguageHindi:     "आपके प्रिस्क्रिप्शन में इस प्रश्न का उत्तर देने के लिए कोई प्रासंगिक जानकारी नहीं मिली।",
	rag.LanguageTamil:     "உங்கள் மருந்துச் சீட்டுகளில் இந்தக் கேள்விக்கு பதிலளிக்கத் தேவையான தகவல் எதுவும் கிடைக்கவில்லை.",
	rag.LanguageKannada:   "ಈ ಪ್ರಶ್ನೆಗೆ ಉತ್ತರಿಸಲು ನಿಮ್ಮ ಔಷಧಿ ಚೀಟಿಗಳಲ್ಲಿ ಯಾವುದೇ ಸಂಬಂಧಿತ ಮಾಹಿತಿ ಸಿಗಲಿಲ್ಲ.",
	rag.LanguageMalayalam: "ഈ ചോദ്യത്തിന് ഉത്തരം നൽകാൻ നിങ്ങളുടെ കുറിപ്പടികളിൽ പ്രസക്തമായ വിവരങ്ങളൊന്നും കണ്ടെത്താനായില്ല.",
	rag.LanguageTelugu:    "ఈ ప్రశ్నకు సమాధానం ఇవ్వడానికి మీ ప్రిస్క్రిప్షన్లలో సంబంధిత సమాచారం ఏదీ కనబడలేదు.",
}

// NoInfoAnswer returns the fixed empty-retrieval reply for a language.
func NoInfoAnswer(lang rag.Language) string {
	if msg, ok := noInfoAnswers[lang]; ok {
		return msg
	}
	return noInfoAnswers[rag.LanguageEnglish]
}

// Generator turns retrieved chunks into a grounded answer.
type Generator struct {
	llmProvider llm.LLMProvider
	timeout     time.Duration
	logger      *log.Logger
}

func NewGenerator(llmProvider llm.LLMProvider, timeout time.Duration, logger *log.Logger) *Generator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Generator{
		llmProvider: llmProvider,
		timeout:     timeout,
		logger:      logger,
	}
}

// Generate answers the question using ONLY the retrieved chunks. History is
// passed for pronoun and follow-up resolution, never as a data source. Model
// failures are wrapped with rag.ErrGenerationUnavailable.
func (g *Generator) Generate(
	ctx context.Context,
	question string,
	lang rag.Language,
	chunks []retrieval.Chunk,
	history []llm.Message,
) (string, error) {

	if len(chunks) == 0 {
		g.logger.Printf("[GENERATION] No chunks retrieved, returning fixed answer (lang=%s)", lang)
		return NoInfoAnswer(lang), nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	promptText := g.buildGroundedPrompt(question, lang, chunks)
	fullHistory := append(append([]llm.Message{}, history...), llm.Message{Role: "user", Content: promptText})

	response, err := g.llmProvider.Chat(ctx, fullHistory)
	if err != nil {
		g.logger.Printf("[ERROR] LLM generation failed: %v", err)
		return "", fmt.Errorf("%w: %v", rag.ErrGenerationUnavailable, err)
	}

	g.logger.Printf("[GENERATION] Answer generated from %d chunks (lang=%s)", len(chunks), lang)
	return response, nil
}

func (g *Generator) buildGroundedPrompt(question string, lang rag.Language, chunks []retrieval.Chunk) string {
	var prompt strings.Builder

	prompt.WriteString("<grounded_reference_material>\n")
	prompt.WriteString("CRITICAL: These prescription excerpts are the ONLY data source. Do NOT use outside medical knowledge.\n\n")
	for i, chunk := range chunks {
		prompt.WriteString(fmt.Sprintf("--- EXCERPT %d (prescription %s) ---\n", i+1, chunk.PrescriptionID))
		prompt.WriteString(chunk.Content)
		prompt.WriteString("\n--- END EXCERPT ---\n")
	}
	prompt.WriteString("</grounded_reference_material>\n\n")

	prompt.WriteString("<task_instructions>\n")
	prompt.WriteString("You are a careful medical assistant answering questions about the user's own prescriptions.\n\n")
	prompt.WriteString("RULES:\n")
	prompt.WriteString("1. Answer ONLY from the text in <grounded_reference_material>.\n")
	prompt.WriteString("2. If the excerpts do not contain the answer, say so plainly. Never invent medicines, dosages or timings.\n")
	prompt.WriteString("3. Use the conversation so far only to resolve pronouns and follow-ups, never as a source of facts.\n")
	prompt.WriteString("4. Be concise and practical. This is not medical advice beyond what the prescription says.\n")
	prompt.WriteString(fmt.Sprintf("5. Write your entire answer in %s.\n", lang))
	prompt.WriteString("</task_instructions>\n\n")

	prompt.WriteString(fmt.Sprintf("Question: %s", question))

	return prompt.String()
}
