package questions

import (
	"context"
	"fmt"
	"strings"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/tidwall/gjson"
)

// TextGenerator provides generative text functionality
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Generator turns a job description into an ordered interview question list
type Generator struct {
	gen TextGenerator
}

var fallbackQuestions = []string{"Tell me about yourself.", "What are your strengths?"}

const questionCount = 5

// NewGenerator creates a question generator
func NewGenerator(gen TextGenerator) (*Generator, error) {
	if gen == nil {
		return nil, fmt.Errorf("no text generator")
	}
	return &Generator{gen: gen}, nil
}

// Generate returns the question list for the position.
// It never fails the caller - on any model or parse problem
// the fixed fallback set is returned.
func (g *Generator) Generate(ctx context.Context, position, description string, skills []string) []string {
	prompt := fmt.Sprintf(`Generate %d interview questions for this position:
Job Position: %s
Description: %s
Skills to assess: %s
Return ONLY a JSON array of strings: ["Question 1", ...]`,
		questionCount, position, description, strings.Join(skills, ", "))

	txt, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		goapp.Log.Warn().Err(err).Str("position", position).Msg("question generation failed, using fallback")
		return fallback()
	}
	res := extractArray(txt)
	if len(res) == 0 {
		goapp.Log.Warn().Str("position", position).Msg("can't parse generated questions, using fallback")
		return fallback()
	}
	return res
}

func fallback() []string {
	res := make([]string, len(fallbackQuestions))
	copy(res, fallbackQuestions)
	return res
}

// extractArray takes the first syntactically valid JSON array in s
func extractArray(s string) []string {
	from := strings.Index(s, "[")
	to := strings.LastIndex(s, "]")
	if from < 0 || to <= from {
		return nil
	}
	frag := s[from : to+1]
	if !gjson.Valid(frag) {
		return nil
	}
	parsed := gjson.Parse(frag)
	if !parsed.IsArray() {
		return nil
	}
	res := []string{}
	for _, it := range parsed.Array() {
		if it.Type != gjson.String || strings.TrimSpace(it.String()) == "" {
			return nil
		}
		res = append(res, it.String())
	}
	return res
}
