// Package explain turns the satisfied criteria chain into a
// plain-language explanation via the Gemini API. Strictly optional:
// nothing in the engine depends on it.
package explain

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"soilkey/internal/nav"
	"soilkey/internal/taxonomy"
)

// GeminiExplainer generates narrative explanations of a classification.
type GeminiExplainer struct {
	client *genai.Client
	model  string
}

func NewGeminiExplainer(ctx context.Context, apiKey, modelName string) (*GeminiExplainer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiExplainer{client: client, model: modelName}, nil
}

// ExplainPath asks the model to explain, for a soil scientist's client,
// why the checked criteria lead to the current classification.
func (e *GeminiExplainer) ExplainPath(ctx context.Context, path []nav.PathEntry, checked []taxonomy.Criterion) (string, error) {
	prompt := buildPathPrompt(path, checked)
	contents := genai.Text(prompt)
	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "No explanation available.", nil
	}
	return strings.TrimSpace(text), nil
}

func buildPathPrompt(path []nav.PathEntry, checked []taxonomy.Criterion) string {
	var sb strings.Builder
	sb.WriteString("Role: Soil scientist. Task: Explain a soil classification result in plain language.\n\n")
	sb.WriteString("The classification was derived with the USDA Keys to Soil Taxonomy. Current path:\n")
	for _, entry := range path {
		if !entry.Satisfied {
			fmt.Fprintf(&sb, "- %s: not yet determined\n", entry.LevelLabel)
			continue
		}
		fmt.Fprintf(&sb, "- %s: %s (%s)\n", entry.LevelLabel, entry.DisplayName, entry.Code)
	}
	sb.WriteString("\nCriteria the user confirmed:\n")
	for _, c := range checked {
		fmt.Fprintf(&sb, "- [%s clause %d] %s\n", c.Code, c.Clause, strings.TrimSpace(c.Content))
	}
	sb.WriteString("\n**INSTRUCTION**:\n")
	sb.WriteString("1. Summarize in 2-3 sentences what soil this is and what characterizes it.\n")
	sb.WriteString("2. Explain how the confirmed criteria lead to each level of the path.\n")
	sb.WriteString("3. If a level is not yet determined, say what kind of observation would settle it.\n")
	sb.WriteString("Answer in Markdown, no code blocks.\n")
	return sb.String()
}
