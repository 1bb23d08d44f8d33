package domain

import (
	"strings"
	"testing"
)

func TestParseDataURISplitsMimeAndPayload(t *testing.T) {
	uri, err := ParseDataURI("data:application/pdf;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("ParseDataURI() error = %v", err)
	}
	if uri.MimeType != "application/pdf" {
		t.Fatalf("expected mime application/pdf, got %q", uri.MimeType)
	}
	raw, err := uri.DecodePayload()
	if err != nil {
		t.Fatalf("DecodePayload() error = %v", err)
	}
	if string(raw) != "hello" {
		t.Fatalf("expected payload hello, got %q", raw)
	}
}

func TestParseDataURIRejectsMalformedShapes(t *testing.T) {
	cases := []string{
		"not-a-data-uri",
		"data:image/png",
		"data:image/png;base64,",
		"data:;base64,aGVsbG8=",
		"data:image/png,aGVsbG8=",
	}
	for _, content := range cases {
		if _, err := ParseDataURI(content); err == nil {
			t.Fatalf("expected error for %q", content)
		}
	}
}

func TestValidateDocumentPayloadNamesOffendingDocument(t *testing.T) {
	err := ValidateDocumentPayload(Document{
		Type:    DocumentTypeID,
		Name:    "scan.png",
		Content: "not-a-data-uri",
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if !strings.Contains(err.Error(), "scan.png") {
		t.Fatalf("expected error to name the document, got %v", err)
	}
}

func TestEncodeDataURIRoundTrips(t *testing.T) {
	content := EncodeDataURI("image/png", []byte{0x89, 0x50, 0x4e, 0x47})
	uri, err := ParseDataURI(content)
	if err != nil {
		t.Fatalf("ParseDataURI() error = %v", err)
	}
	if uri.MimeType != "image/png" {
		t.Fatalf("expected mime image/png, got %q", uri.MimeType)
	}
}
