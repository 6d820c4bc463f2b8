package runtime

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	errspkg "github.com/drblury/clickflow/internal/runtime/errors"
	eventpkg "github.com/drblury/clickflow/internal/runtime/event"
	"github.com/drblury/clickflow/internal/runtime/jsoncodec"
	"github.com/drblury/clickflow/internal/runtime/logging"
	metadatapkg "github.com/drblury/clickflow/internal/runtime/metadata"
)

const (
	// DefaultWebhookPath is the ingestion route when the configuration does
	// not name one.
	DefaultWebhookPath = "/webhook/clickup"

	// DefaultMaxBodyBytes caps inbound webhook payloads at 1 MiB.
	DefaultMaxBodyBytes = int64(1 << 20)

	// SignatureHeader carries the sender's HMAC-SHA256 hex digest of the body.
	SignatureHeader = "X-Signature"
)

// WebhookServer accepts ClickUp webhook deliveries over HTTP, normalizes
// them into events, and hands them to the Service publish API. It never
// waits for handlers: a 200 means the event reached the queue, nothing more.
type WebhookServer struct {
	svc     *Service
	logger  logging.ServiceLogger
	metrics *IngressMetrics

	path         string
	secret       string
	maxBodyBytes int64

	server *http.Server
}

// NewWebhookServer builds the ingress server from the Service configuration.
// Pass nil metrics to skip ingestion counters.
func NewWebhookServer(svc *Service, metrics *IngressMetrics) (*WebhookServer, error) {
	if svc == nil {
		return nil, errspkg.ErrServiceRequired
	}

	ws := &WebhookServer{
		svc:          svc,
		logger:       svc.Logger.With(logging.LogFields{"component": "ingress"}),
		metrics:      metrics,
		path:         svc.Conf.WebhookPath,
		secret:       svc.Conf.SigningSecret,
		maxBodyBytes: svc.Conf.MaxBodyBytes,
	}
	if ws.path == "" {
		ws.path = DefaultWebhookPath
	}
	if ws.maxBodyBytes <= 0 {
		ws.maxBodyBytes = DefaultMaxBodyBytes
	}

	if ws.metrics != nil {
		if err := ws.metrics.Register(); err != nil {
			return nil, err
		}
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Post(ws.path, ws.handleWebhook)
	router.Get("/healthz", ws.handleHealthz)

	ws.server = &http.Server{
		Addr:              svc.Conf.WebhookAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return ws, nil
}

// Handler exposes the underlying HTTP handler, mostly for tests and for
// embedding the ingress into an existing server.
func (ws *WebhookServer) Handler() http.Handler {
	return ws.server.Handler
}

// Start serves until the listener fails or Shutdown is called.
func (ws *WebhookServer) Start() error {
	ws.logger.Info("Starting webhook ingress", logging.LogFields{
		"addr": ws.server.Addr,
		"path": ws.path,
	})
	err := ws.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests until ctx expires.
func (ws *WebhookServer) Shutdown(ctx context.Context) error {
	return ws.server.Shutdown(ctx)
}

func (ws *WebhookServer) handleWebhook(w http.ResponseWriter, r *http.Request) {
	receivedAt := eventpkg.Now()

	r.Body = http.MaxBytesReader(w, r.Body, ws.maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ws.metrics.recordRejected("body_too_large")
			ws.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		ws.metrics.recordRejected("body_read")
		ws.writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}

	if ws.secret != "" && !ws.verifySignature(payload, r.Header.Get(SignatureHeader)) {
		ws.metrics.recordRejected("bad_signature")
		ws.writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	headers := metadatapkg.FromHTTPHeader(r.Header)
	evt, err := eventpkg.Normalize(payload, headers, receivedAt)
	if err != nil {
		ws.metrics.recordRejected("normalize")
		ws.logger.Debug("Rejected webhook payload", logging.LogFields{
			"error":  err.Error(),
			"remote": r.RemoteAddr,
		})
		ws.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := ws.svc.PublishEvent(r.Context(), evt); err != nil {
		ws.metrics.recordPublishFailure(evt.Kind.String())
		ws.logger.Error("Failed to publish webhook event", err, logging.LogFields{
			"event_kind":  evt.Kind.String(),
			"delivery_id": evt.DeliveryID,
		})
		ws.writeError(w, http.StatusBadGateway, "event could not be enqueued")
		return
	}

	ws.metrics.recordReceived(evt.Kind.String(), len(payload))
	ws.writeOK(w)
}

func (ws *WebhookServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	ws.writeOK(w)
}

// verifySignature compares the sender's digest against an HMAC-SHA256 of
// the raw body keyed with the configured signing secret.
func (ws *WebhookServer) verifySignature(payload []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(ws.secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (ws *WebhookServer) writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = jsoncodec.Encode(w, map[string]any{"ok": true})
}

func (ws *WebhookServer) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsoncodec.Encode(w, map[string]any{"ok": false, "error": msg})
}
