package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/loan-intake/internal/core/domain"
	"github.com/kirillkom/loan-intake/internal/infrastructure/resilience"
)

// Client calls a Gemini-style generateContent endpoint and maps its JSON
// reply onto a domain ProcessingResult. The model is not trusted: the reply
// is re-validated field by field before it leaves this package.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	rules      Rules
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model, apiKey string, rules Rules, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		rules:      rules,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

// Wire shapes of the provider reply. The model answers in the camelCase
// schema the prompt dictates; the adapter owns the translation to domain.
type wireResult struct {
	ExtractedFields wireExtractedFields `json:"extractedFields"`
	Validations     []wireValidation    `json:"validations"`
	Decision        string              `json:"decision"`
	Explanation     string              `json:"explanation"`
	MissingData     []string            `json:"missingData"`
	UserFeedback    string              `json:"userFeedback"`
}

type wireExtractedFields struct {
	FullName       *string  `json:"fullName"`
	DOB            *string  `json:"dob"`
	Age            *int     `json:"age"`
	IdentityNumber *string  `json:"identityNumber"`
	EmployerName   *string  `json:"employerName"`
	AnnualIncome   *float64 `json:"annualIncome"`
}

type wireValidation struct {
	FieldName string `json:"fieldName"`
	IsValid   bool   `json:"isValid"`
	Message   string `json:"message"`
}

func (c *Client) ProcessApplication(
	ctx context.Context,
	form domain.ApplicantForm,
	documents []domain.Document,
) (*domain.ProcessingResult, error) {
	parts, err := buildDocumentParts(documents)
	if err != nil {
		return nil, err
	}

	respText, err := c.generateJSON(ctx, buildSystemInstruction(form, c.rules), parts)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("process application", err)
	}

	var wire wireResult
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &wire); err != nil {
		return nil, domain.WrapError(domain.ErrProvider, "process application",
			fmt.Errorf("parse provider response: %w", err))
	}

	decision, ok := domain.ParseDecision(wire.Decision)
	if !ok {
		return nil, domain.WrapError(domain.ErrProvider, "process application",
			fmt.Errorf("provider returned unrecognized decision %q", wire.Decision))
	}

	result := &domain.ProcessingResult{
		ExtractedFields: domain.ExtractedFields{
			FullName:       wire.ExtractedFields.FullName,
			DOB:            wire.ExtractedFields.DOB,
			Age:            wire.ExtractedFields.Age,
			IdentityNumber: wire.ExtractedFields.IdentityNumber,
			EmployerName:   wire.ExtractedFields.EmployerName,
			AnnualIncome:   wire.ExtractedFields.AnnualIncome,
		},
		Validations:  make([]domain.ValidationStatus, 0, len(wire.Validations)),
		Decision:     decision,
		Explanation:  wire.Explanation,
		MissingData:  wire.MissingData,
		UserFeedback: wire.UserFeedback,
	}
	for _, v := range wire.Validations {
		result.Validations = append(result.Validations, domain.ValidationStatus{
			FieldName: v.FieldName,
			IsValid:   v.IsValid,
			Message:   v.Message,
		})
	}
	if result.MissingData == nil {
		result.MissingData = []string{}
	}
	return result, nil
}

type inlinePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

func buildDocumentParts(documents []domain.Document) ([]inlinePart, error) {
	parts := make([]inlinePart, 0, len(documents)+1)
	parts = append(parts, inlinePart{
		Text: "Analyze the attached documents to extract applicant data and determine a loan decision based on the system instructions.",
	})
	for _, doc := range documents {
		uri, err := domain.ParseDataURI(doc.Content)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "build document parts",
				fmt.Errorf("document %q has an invalid format: %w", doc.Name, err))
		}
		parts = append(parts, inlinePart{
			InlineData: &inlineData{
				MimeType: uri.MimeType,
				Data:     uri.Base64,
			},
		})
	}
	return parts, nil
}

func (c *Client) generateJSON(ctx context.Context, systemInstruction string, parts []inlinePart) (string, error) {
	reqBody := map[string]any{
		"system_instruction": map[string]any{
			"parts": []map[string]string{{"text": systemInstruction}},
		},
		"contents": []map[string]any{
			{"parts": parts},
		},
		"generationConfig": map[string]any{
			"response_mime_type": "application/json",
		},
	}

	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.model)
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, path, reqBody, &response, "generate")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "gemini.generate", call, classifyProviderError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", err
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("provider returned no candidates")
	}
	return strings.TrimSpace(response.Candidates[0].Content.Parts[0].Text), nil
}

// extractJSONObject tolerates models that wrap the JSON body in prose or
// markdown fences.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
