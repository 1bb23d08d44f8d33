package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DataURI is a decoded data:<mime>;base64,<payload> document body.
type DataURI struct {
	MimeType string
	Base64   string
}

// ParseDataURI splits a document payload into mime type and base64 data.
// The payload is not decoded here; DecodePayload does that when raw bytes
// are needed.
func ParseDataURI(content string) (DataURI, error) {
	rest, ok := strings.CutPrefix(content, "data:")
	if !ok {
		return DataURI{}, fmt.Errorf("missing data: prefix")
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok {
		return DataURI{}, fmt.Errorf("missing payload separator")
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mime == "" {
		return DataURI{}, fmt.Errorf("missing base64 mime declaration")
	}
	if data == "" {
		return DataURI{}, fmt.Errorf("empty payload")
	}
	return DataURI{MimeType: mime, Base64: data}, nil
}

// ValidateDocumentPayload rejects a malformed document before any provider
// call, naming the offending document.
func ValidateDocumentPayload(doc Document) error {
	if _, err := ParseDataURI(doc.Content); err != nil {
		return WrapError(ErrInvalidInput, "validate document",
			fmt.Errorf("document %q has an invalid format: %w", doc.Name, err))
	}
	return nil
}

func (u DataURI) DecodePayload() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(u.Base64)
	if err != nil {
		return nil, fmt.Errorf("decode base64 payload: %w", err)
	}
	return raw, nil
}

// EncodeDataURI builds the self-describing payload shape the provider
// contract expects.
func EncodeDataURI(mimeType string, raw []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(raw)
}
