package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/novamind-ai/novamind-api/internal/apperr"
)

const (
	defaultChatModelName = "gemini-1.5-flash-latest"

	chatSystemInstruction = "You are NovaMind, a helpful AI assistant. " +
		"Answer the user's question clearly and concisely. When asked for code, " +
		"provide working, well-formatted examples. When asked for a document, " +
		"produce clean prose suitable for a generated PDF. Do not make up facts."

	ocrDefaultPrompt = "Extract all readable text from this image. " +
		"Return only the extracted text, preserving the original layout where possible."
)

// Message is one turn of conversation context as the client supplies it.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"/"model"
	Content string `json:"content"`
}

type LLMService struct {
	client *genai.Client
}

func NewLLMService(ctx context.Context, apiKey string) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &LLMService{client: client}, nil
}

func (s *LLMService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// toGeminiHistory converts client-role messages into the upstream content
// format. The upstream API only knows "user" and "model" roles.
func toGeminiHistory(history []Message) []*genai.Content {
	var contents []*genai.Content
	for _, msg := range history {
		role := "user"
		if msg.Role == "assistant" || msg.Role == "model" {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return contents
}

func (s *LLMService) newChatModel() *genai.GenerativeModel {
	model := s.client.GenerativeModel(defaultChatModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(chatSystemInstruction)},
	}
	return model
}

// Complete sends the message with its trailing history window and returns
// the full response text.
func (s *LLMService) Complete(ctx context.Context, message string, history []Message) (string, error) {
	model := s.newChatModel()

	chatSession := model.StartChat()
	chatSession.History = toGeminiHistory(history)

	resp, err := chatSession.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", apperr.Upstream("failed to generate response", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", apperr.Upstream("failed to generate response", errors.New("empty completion"))
	}
	return text, nil
}

// CompleteStream relays incremental text chunks to onChunk as they arrive
// from the upstream stream, with no buffering beyond what the connection
// delivers. An optional image is attached to the user turn. Cancelling ctx
// aborts the upstream stream.
func (s *LLMService) CompleteStream(ctx context.Context, message string, history []Message, image []byte, imageFormat string, onChunk func(text string) error) error {
	model := s.newChatModel()

	chatSession := model.StartChat()
	chatSession.History = toGeminiHistory(history)

	parts := []genai.Part{genai.Text(message)}
	if len(image) > 0 {
		if imageFormat == "" {
			imageFormat = "png"
		}
		parts = append(parts, genai.ImageData(imageFormat, image))
	}

	iter := chatSession.SendMessageStream(ctx, parts...)
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return apperr.Upstream("failed to stream response", err)
		}
		if chunk := responseText(resp); chunk != "" {
			if err := onChunk(chunk); err != nil {
				return err
			}
		}
	}
}

// ExtractText performs OCR by sending the image and a prompt to the vision
// model and returning the text of the response.
func (s *LLMService) ExtractText(ctx context.Context, image []byte, imageFormat, prompt string) (string, error) {
	if prompt == "" {
		prompt = ocrDefaultPrompt
	}
	if imageFormat == "" {
		imageFormat = "png"
	}

	model := s.client.GenerativeModel(defaultChatModelName)
	resp, err := model.GenerateContent(ctx, genai.ImageData(imageFormat, image), genai.Text(prompt))
	if err != nil {
		return "", apperr.Upstream("failed to extract text from image", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", apperr.Upstream("failed to extract text from image", errors.New("empty OCR response"))
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}
