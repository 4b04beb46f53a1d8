package core

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

// PDFService renders generated text into a simple A4 document.
type PDFService struct{}

func NewPDFService() *PDFService {
	return &PDFService{}
}

// Build renders the title and body into PDF bytes. Markdown-style heading
// markers in the body are stripped; the LLM output is otherwise laid out
// as plain paragraphs.
func (s *PDFService) Build(title, body string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Helvetica", "B", 16)
		pdf.MultiCell(0, 8, title, "", "L", false)
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "", 11)
	for _, paragraph := range strings.Split(body, "\n") {
		paragraph = strings.TrimLeft(paragraph, "#* ")
		if paragraph == "" {
			pdf.Ln(3)
			continue
		}
		pdf.MultiCell(0, 6, paragraph, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}
