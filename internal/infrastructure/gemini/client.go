package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient writes the short explanation and icebreakers attached to a
// chat room once an introduction is accepted.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-1.5-flash")
	model.SetTemperature(0.6)

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (c *GeminiClient) Close() {
	c.client.Close()
}

// traits is the subset of a profile the model may see. Contact details,
// guardian info and ids stay out of prompts.
func traits(p *domain.Profile) map[string]interface{} {
	t := map[string]interface{}{
		"age":             p.Age,
		"city":            p.City,
		"country":         p.Country,
		"education":       string(p.Education),
		"occupation":      p.Occupation,
		"religious_level": string(p.ReligiousLevel),
		"marriage_goal":   p.MarriageGoal,
		"wants_children":  string(p.WantsChildren),
	}
	for k, v := range t {
		if s, ok := v.(string); ok && s == "" {
			delete(t, k)
		}
	}
	return t
}

func (c *GeminiClient) ExplainIntroduction(ctx context.Context, a, b *domain.Profile) (string, error) {
	score := domain.ScoreCompatibility(a, b)
	prompt := fmt.Sprintf(`
		Two people were introduced for marriage and both agreed to talk.
		Person A: %v
		Person B: %v
		Compatibility score: %d/100.

		Task: Write one or two warm, respectful sentences on what they have in common.
		Do not mention the score. Language: English.
		Output: Just the text.
	`, traits(a), traits(b), score.Total)

	text, err := c.generate(ctx, prompt)
	if err != nil || text == "" {
		return fallbackExplanation(a, b), nil
	}
	return text, nil
}

func fallbackExplanation(a, b *domain.Profile) string {
	if a.City != "" && strings.EqualFold(a.City, b.City) {
		return fmt.Sprintf("You both live in %s, which makes meeting easy.", a.City)
	}
	if a.MarriageGoal != "" && b.MarriageGoal != "" {
		return "You both described what you hope for in marriage. Start there."
	}
	return "You both accepted this introduction. Take your time getting to know each other."
}

func (c *GeminiClient) GenerateIcebreakers(ctx context.Context, a, b *domain.Profile) ([]string, error) {
	prompt := fmt.Sprintf(`
		Generate 3 respectful opening questions for two people introduced for marriage.
		Person A: %v
		Person B: %v

		Focus on values, family and shared background. No flirting.
		Language: English.
		Output: JSON array of strings. Example: ["Question one?", "Question two?"]
	`, traits(a), traits(b))

	responseText, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if responseText == "" {
		return nil, fmt.Errorf("no content generated")
	}
	return parseLines(responseText)
}

func (c *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// parseLines accepts a JSON array, optionally fenced as markdown, or one
// item per line.
func parseLines(responseText string) ([]string, error) {
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	var lines []string
	if err := json.Unmarshal([]byte(responseText), &lines); err == nil {
		return lines, nil
	}
	for _, line := range strings.Split(responseText, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "[") && !strings.HasSuffix(line, "]") {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("failed to parse icebreakers")
	}
	return lines, nil
}
