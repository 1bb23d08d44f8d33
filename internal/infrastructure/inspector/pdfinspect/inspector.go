package pdfinspect

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/loan-intake/internal/core/domain"
)

// Inspector extracts a short plain-text preview from PDF uploads so the
// reviewer detail view can show document contents without re-downloading.
// Document understanding stays with the decision provider; this is display
// sugar only, and every error path is treated as "no preview".
type Inspector struct {
	maxChars int
}

func New(maxChars int) *Inspector {
	if maxChars <= 0 {
		maxChars = 600
	}
	return &Inspector{maxChars: maxChars}
}

func (i *Inspector) Preview(doc domain.Document) (string, error) {
	uri, err := domain.ParseDataURI(doc.Content)
	if err != nil {
		return "", fmt.Errorf("parse document payload: %w", err)
	}
	if !strings.EqualFold(uri.MimeType, "application/pdf") {
		return "", nil
	}

	raw, err := uri.DecodePayload()
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(textReader, int64(i.maxChars)*4)); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	preview := strings.Join(strings.Fields(buf.String()), " ")
	if len(preview) > i.maxChars {
		preview = preview[:i.maxChars]
	}
	return preview, nil
}
