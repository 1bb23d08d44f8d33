package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/loan-intake/internal/config"
	"github.com/kirillkom/loan-intake/internal/core/domain"
	"github.com/kirillkom/loan-intake/internal/core/ports"
	"github.com/kirillkom/loan-intake/internal/observability/metrics"
)

const serviceName = "loan-intake-api"

const maxUploadBytes = 32 << 20

type reportExporter interface {
	Export(apps []*domain.LoanApplication, w io.Writer) error
}

type Router struct {
	cfg        config.Config
	submitUC   ports.ApplicationSubmitter
	overrideUC ports.DecisionOverrider
	queue      ports.ReviewQueue
	reader     ports.ApplicationReader
	exporter   reportExporter
	metrics    *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	submitUC ports.ApplicationSubmitter,
	overrideUC ports.DecisionOverrider,
	queue ports.ReviewQueue,
	reader ports.ApplicationReader,
	exporter reportExporter,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:        cfg,
		submitUC:   submitUC,
		overrideUC: overrideUC,
		queue:      queue,
		reader:     reader,
		exporter:   exporter,
		metrics:    serverMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/applications", rt.applications)
	mux.HandleFunc("/v1/applications/", rt.applicationByID)
	mux.HandleFunc("/v1/review/queue", rt.reviewQueue)
	mux.HandleFunc("/v1/reports/applications.xlsx", rt.exportReport)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxConcurrent, 100*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) applications(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.submitApplication(w, r)
	case http.MethodGet:
		rt.listApplications(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

// submitApplication is the applicant-facing submission flow: form fields plus
// one upload per document type. Re-sending a file field within the same
// request body replaces the earlier one (last write wins per type).
func (rt *Router) submitApplication(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart form is required"})
		return
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("requested_amount")), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "requested_amount must be a number"})
		return
	}
	form := domain.ApplicantForm{
		FullName:        strings.TrimSpace(r.FormValue("full_name")),
		Email:           strings.TrimSpace(r.FormValue("email")),
		Phone:           strings.TrimSpace(r.FormValue("phone")),
		RequestedAmount: amount,
	}

	documents, err := rt.collectUploads(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	start := time.Now()
	app, err := rt.submitUC.Submit(r.Context(), form, documents)
	if rt.metrics != nil {
		rt.metrics.RecordProviderCall(serviceName, time.Since(start), err)
	}
	if err != nil {
		if rt.metrics != nil && domain.IsKind(err, domain.ErrProvider) {
			rt.metrics.RecordProviderFailure(serviceName, "provider")
		}
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil && app.Result != nil {
		rt.metrics.RecordApplicationProcessed(serviceName, string(app.Result.Decision))
	}
	writeJSON(w, http.StatusCreated, app)
}

var uploadFields = map[string]domain.DocumentType{
	"id_document":  domain.DocumentTypeID,
	"income_proof": domain.DocumentTypePaystub,
}

func (rt *Router) collectUploads(r *http.Request) ([]domain.Document, error) {
	var documents []domain.Document
	for _, field := range []string{"id_document", "income_proof"} {
		docType := uploadFields[field]
		if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
			continue
		}
		for _, header := range r.MultipartForm.File[field] {
			file, err := header.Open()
			if err != nil {
				return nil, fmt.Errorf("open upload %q: %w", field, err)
			}
			raw, err := io.ReadAll(file)
			_ = file.Close()
			if err != nil {
				return nil, fmt.Errorf("read upload %q: %w", field, err)
			}
			mimeType := header.Header.Get("Content-Type")
			if mimeType == "" {
				mimeType = http.DetectContentType(raw)
			}
			documents = append(documents, domain.Document{
				Type:    docType,
				Name:    header.Filename,
				Content: domain.EncodeDataURI(mimeType, raw),
			})
		}
	}
	return documents, nil
}

func (rt *Router) listApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := rt.queue.List(r.Context())
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (rt *Router) applicationByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/applications/")
	if rest == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "application id is required"})
		return
	}

	if id, ok := strings.CutSuffix(rest, "/override"); ok {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		rt.overrideApplication(w, r, id)
		return
	}

	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	app, err := rt.reader.GetByID(r.Context(), rest)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (rt *Router) overrideApplication(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Decision string `json:"decision"`
		Comment  string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	decision, ok := domain.ParseDecision(req.Decision)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unrecognized decision %q", req.Decision)})
		return
	}

	var priorDecision string
	if prior, err := rt.reader.GetByID(r.Context(), id); err == nil && prior.Result != nil {
		priorDecision = string(prior.Result.Decision)
	}

	app, err := rt.overrideUC.Override(r.Context(), id, decision, req.Comment)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordOverride(serviceName, priorDecision, string(decision))
	}
	writeJSON(w, http.StatusOK, app)
}

func (rt *Router) reviewQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	pending, err := rt.queue.PendingReview(r.Context())
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if rt.metrics != nil {
		rt.metrics.SetPendingReview(len(pending))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"pending_review_count": len(pending),
		"applications":         pending,
	})
}

func (rt *Router) exportReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	apps, err := rt.queue.List(r.Context())
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="applications.xlsx"`)
	if err := rt.exporter.Export(apps, w); err != nil {
		// Headers are already on the wire; only the log can tell.
		logExportError(r, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
