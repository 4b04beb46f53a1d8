package core

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/novamind-ai/novamind-api/internal/apperr"
	"github.com/novamind-ai/novamind-api/internal/search"
)

const (
	// historyWindow bounds how many trailing turns of client-held history
	// are forwarded upstream.
	historyWindow = 6

	// maxAttachedImages caps the image-search results attached to a reply.
	maxAttachedImages = 4

	apologyMessage = "I'm sorry, I couldn't process that request. Please try again."
)

// Completer is the completion-API surface the chat relay depends on.
// *LLMService satisfies it; tests substitute stubs.
type Completer interface {
	Complete(ctx context.Context, message string, history []Message) (string, error)
	CompleteStream(ctx context.Context, message string, history []Message, image []byte, imageFormat string, onChunk func(text string) error) error
	ExtractText(ctx context.Context, image []byte, imageFormat, prompt string) (string, error)
}

// ImageSearcher is the image-search surface of the relay.
type ImageSearcher interface {
	Search(ctx context.Context, query string, count int) ([]search.Image, error)
}

// PDFBuilder renders a completion into document bytes when the intent
// calls for it.
type PDFBuilder interface {
	Build(title, body string) ([]byte, error)
}

// ChatResponse is the non-streaming response envelope.
type ChatResponse struct {
	Text   string         `json:"text"`
	Images []search.Image `json:"images"`
	PDF    string         `json:"pdf,omitempty"` // base64-encoded document
	Intent Intent         `json:"intent"`
}

// Frame is one discrete unit of the streaming response. Type discriminates
// the payload; exactly one field besides Type is populated per frame.
type Frame struct {
	Type   string         `json:"type"` // intent | text | images | pdf | done | error
	Intent Intent         `json:"intent,omitempty"`
	Text   string         `json:"text,omitempty"`
	Images []search.Image `json:"images,omitempty"`
	PDF    string         `json:"pdf,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type ChatService struct {
	llm      Completer
	searcher ImageSearcher
	pdf      PDFBuilder
	logger   *zap.SugaredLogger
}

func NewChatService(llm Completer, searcher ImageSearcher, pdf PDFBuilder, logger *zap.SugaredLogger) *ChatService {
	return &ChatService{llm: llm, searcher: searcher, pdf: pdf, logger: logger}
}

// docTitle derives a document heading from the user's request.
func docTitle(message string) string {
	title := strings.TrimSpace(message)
	if len(title) > 60 {
		title = title[:60]
	}
	return title
}

func trimHistory(history []Message) []Message {
	if len(history) > historyWindow {
		return history[len(history)-historyWindow:]
	}
	return history
}

// searchImages runs the unconditional image-search fan-out. Failures degrade
// to an empty result set; the chat reply never fails because of it.
func (s *ChatService) searchImages(ctx context.Context, message string) []search.Image {
	terms := ExtractSearchTerms(message)
	images, err := s.searcher.Search(ctx, terms, maxAttachedImages)
	if err != nil {
		s.logger.Warnw("image search failed", "query", terms, "error", err)
		return []search.Image{}
	}
	if images == nil {
		images = []search.Image{}
	}
	return images
}

// Respond handles the non-streaming chat path: classify, fan out the image
// search, forward to the completion API, merge both into one envelope.
// Every message triggers the image search regardless of intent; existing
// clients rely on the attached results.
func (s *ChatService) Respond(ctx context.Context, message string, history []Message) (*ChatResponse, error) {
	if message == "" {
		return nil, apperr.Validation("message is required")
	}

	intent := ClassifyIntent(message)

	imagesCh := make(chan []search.Image, 1)
	go func() {
		imagesCh <- s.searchImages(ctx, message)
	}()

	text, err := s.llm.Complete(ctx, message, trimHistory(history))
	if err != nil {
		// Degrade to a generic apology rather than surfacing upstream
		// internals to the client.
		s.logger.Errorw("chat completion failed", "error", err)
		text = apologyMessage
	}

	resp := &ChatResponse{
		Text:   text,
		Images: <-imagesCh,
		Intent: intent,
	}

	if intent == IntentPDF && err == nil {
		pdfBytes, pdfErr := s.pdf.Build(docTitle(message), text)
		if pdfErr != nil {
			s.logger.Errorw("pdf generation failed", "error", pdfErr)
		} else {
			resp.PDF = base64.StdEncoding.EncodeToString(pdfBytes)
		}
	}

	return resp, nil
}

// StreamRequest is the input to the streaming chat path.
type StreamRequest struct {
	Message     string
	History     []Message
	Image       []byte // optional inline image attached to the user turn
	ImageFormat string
}

// RespondStream relays the chat turn as a sequence of typed frames: exactly
// one intent frame first, text frames as generation proceeds, one images
// frame whenever the concurrent search completes, an optional pdf frame for
// pdf intent, and a terminal done frame. Text and images frames interleave
// non-deterministically. A failure emits one terminal error frame instead.
// Cancelling ctx (client disconnect) aborts the upstream stream.
func (s *ChatService) RespondStream(ctx context.Context, req StreamRequest, emit func(Frame) error) error {
	if req.Message == "" {
		return emit(Frame{Type: "error", Error: "message is required"})
	}

	intent := ClassifyIntent(req.Message)
	if err := emit(Frame{Type: "intent", Intent: intent}); err != nil {
		return err
	}

	imagesCh := make(chan []search.Image, 1)
	go func() {
		imagesCh <- s.searchImages(ctx, req.Message)
	}()

	type textEvent struct {
		chunk string
		err   error
		done  bool
	}
	textCh := make(chan textEvent)
	go func() {
		defer close(textCh)
		err := s.llm.CompleteStream(ctx, req.Message, trimHistory(req.History), req.Image, req.ImageFormat,
			func(chunk string) error {
				select {
				case textCh <- textEvent{chunk: chunk}:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
		select {
		case textCh <- textEvent{err: err, done: true}:
		case <-ctx.Done():
		}
	}()

	var fullText []byte
	imagesSent := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case images := <-imagesCh:
			if err := emit(Frame{Type: "images", Images: images}); err != nil {
				return err
			}
			imagesSent = true
			imagesCh = nil // disable this case
		case ev := <-textCh:
			if ev.done {
				if ev.err != nil {
					s.logger.Errorw("chat stream failed", "error", ev.err)
					return emit(Frame{Type: "error", Error: apperr.UserMessage(ev.err)})
				}
				// Generation finished; the images frame must still arrive
				// before the terminal done frame.
				if !imagesSent {
					select {
					case images := <-imagesCh:
						if err := emit(Frame{Type: "images", Images: images}); err != nil {
							return err
						}
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(10 * time.Second):
						if err := emit(Frame{Type: "images", Images: []search.Image{}}); err != nil {
							return err
						}
					}
				}
				if intent == IntentPDF {
					pdfBytes, pdfErr := s.pdf.Build(docTitle(req.Message), string(fullText))
					if pdfErr != nil {
						s.logger.Errorw("pdf generation failed", "error", pdfErr)
					} else if err := emit(Frame{Type: "pdf", PDF: base64.StdEncoding.EncodeToString(pdfBytes)}); err != nil {
						return err
					}
				}
				return emit(Frame{Type: "done"})
			}
			fullText = append(fullText, ev.chunk...)
			if err := emit(Frame{Type: "text", Text: ev.chunk}); err != nil {
				return err
			}
		}
	}
}

// ExtractTextFromImage is the OCR operation behind /chat/ocr.
func (s *ChatService) ExtractTextFromImage(ctx context.Context, image []byte, imageFormat, prompt string) (string, error) {
	if len(image) == 0 {
		return "", apperr.Validation("image data is required")
	}
	return s.llm.ExtractText(ctx, image, imageFormat, prompt)
}

// SearchImages is the pass-through image search behind /chat/images.
func (s *ChatService) SearchImages(ctx context.Context, query string, count int) ([]search.Image, error) {
	if query == "" {
		return nil, apperr.Validation("query parameter q is required")
	}
	if count <= 0 || count > 20 {
		count = maxAttachedImages
	}
	return s.searcher.Search(ctx, query, count)
}
