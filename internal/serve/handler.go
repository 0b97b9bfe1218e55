package serve

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/RCarmona53/amazon-word-cloud/models"
	"github.com/RCarmona53/amazon-word-cloud/pkg/pipeline"
)

const (
	msgInvalidInput = "Invalid or empty URL"
	msgDuplicate    = "Request for this URL is already being processed"
	msgNoDesc       = "No description for this product"
	msgTimeout      = "Timed out computing word frequency"
	msgInternal     = "Internal error"
)

// maxRequestBody bounds the JSON or form body of a request.
const maxRequestBody = 64 * 1024

type WordFrequencyService interface {
	WordFrequency(ctx context.Context, rawURL string) (*models.Result, error)
}

type wordFrequencyReq struct {
	URL string `json:"url"`
}

// NewHandler routes POST /word_frequency (and its alias POST /products)
// plus GET /health.
func NewHandler(svc WordFrequencyService, logger *slog.Logger, requestTimeout time.Duration) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	wordFrequency := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}

		rawURL, ok := requestURL(w, r)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgInvalidInput})
			return
		}

		ctx := r.Context()
		if requestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, requestTimeout)
			defer cancel()
		}

		result, err := svc.WordFrequency(ctx, rawURL)
		if err != nil {
			code, msg := statusFor(err)
			if code == http.StatusInternalServerError {
				logger.Error("Word frequency failed", "url", rawURL, "error", err)
			}
			writeJSON(w, code, map[string]string{"error": msg})
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
	mux.HandleFunc("/word_frequency", wordFrequency)
	mux.HandleFunc("/products", wordFrequency)

	return logRequest(logger, mux)
}

// requestURL reads url from a JSON body or from form/query values.
func requestURL(w http.ResponseWriter, r *http.Request) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req wordFrequencyReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", false
		}
		return req.URL, strings.TrimSpace(req.URL) != ""
	}

	if err := r.ParseForm(); err != nil {
		return "", false
	}
	rawURL := r.FormValue("url")
	return rawURL, strings.TrimSpace(rawURL) != ""
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, pipeline.ErrInvalidInput):
		return http.StatusBadRequest, msgInvalidInput
	case errors.Is(err, pipeline.ErrDuplicateRequest):
		return http.StatusConflict, msgDuplicate
	case errors.Is(err, pipeline.ErrNoDescription):
		return http.StatusUnprocessableEntity, msgNoDesc
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, msgTimeout
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func logRequest(l *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		l.Info("Handled request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
		)
	})
}
