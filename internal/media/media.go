// Package media turns audio and images into text questions for the ask
// pipeline: speech transcription, image text extraction, and question
// formulation from extracted text.
package media

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	logx "github.com/insightx/server/pkg/logger"
)

// Config selects the multimodal model used for transcription and OCR.
type Config struct {
	Model string `envconfig:"MEDIA_MODEL" default:"gemini-2.5-flash"`
}

// MinReadableTextLen is the minimum extracted-text length treated as a
// readable image.
const MinReadableTextLen = 5

const (
	transcribePrompt = "Transcribe this audio recording verbatim. Return ONLY the spoken text, nothing else. If there is no speech, return an empty response."
	extractPrompt    = "Extract all text visible in this image (chart, report, or screenshot). Return ONLY the extracted text, preserving line breaks, nothing else."
)

// Processor runs the multimodal model for the media endpoints.
type Processor struct {
	client *genai.Client
	model  string
}

func NewProcessor(client *genai.Client, model string) *Processor {
	return &Processor{client: client, model: model}
}

// Transcribe converts an audio upload to text.
func (p *Processor) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	out, err := p.generate(ctx, data, mimeType, transcribePrompt, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0)),
	})
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return out, nil
}

// ExtractText pulls the visible text out of an image upload.
func (p *Processor) ExtractText(ctx context.Context, data []byte, mimeType string) (string, error) {
	out, err := p.generate(ctx, data, mimeType, extractPrompt, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0)),
	})
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	return out, nil
}

// Readable reports whether extracted text is substantial enough to build a
// question from.
func Readable(extracted string) bool {
	return len(strings.TrimSpace(extracted)) >= MinReadableTextLen
}

// FormulateQuestion turns extracted image text, plus an optional user note,
// into one specific analytics question.
func (p *Processor) FormulateQuestion(ctx context.Context, extracted, note string) (string, error) {
	prompt := formulationPrompt(extracted, note)
	resp, err := p.client.Models.GenerateContent(ctx, p.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(0.3)),
			MaxOutputTokens: 100,
		})
	if err != nil {
		return "", fmt.Errorf("formulate question: %w", err)
	}
	question := strings.TrimSpace(resp.Text())
	logx.Debug().Str("question", question).Msg("formulated question from image text")
	return question, nil
}

func formulationPrompt(extracted, note string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I have extracted the following text from an image (chart, report, or screenshot):\n\"\"\"%s\"\"\"\n", extracted)
	if strings.TrimSpace(note) != "" {
		fmt.Fprintf(&b, "\nThe user also provided this specific note/question: \"%s\"\n", note)
		b.WriteString("\nTask: Combine the image text and the user's note to formulate a single, clear, " +
			"and specific business question that can be answered by querying the 'upi_transactions' database.\n" +
			"Prioritize the user's note if it refines the context.")
	} else {
		b.WriteString("\nTask: Based on this text, formulate a single, clear, and specific business question " +
			"that can be answered by querying the 'upi_transactions' database.")
	}
	b.WriteString("\nReturn ONLY the question, nothing else.")
	return b.String()
}

func (p *Processor) generate(ctx context.Context, data []byte, mimeType, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			{Text: prompt},
		},
	}}
	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}
