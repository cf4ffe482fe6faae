package integration

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/byggbas/byggbas/internal/platform/httpx"
)

const signatureHeader = "X-Webhook-Signature"

// WebhookHandler receives provider callbacks. Requests carry no session; they
// authenticate with an HMAC-SHA256 signature over the raw body, keyed per
// provider.
type WebhookHandler struct {
	logger  *slog.Logger
	secrets map[Provider]string
}

func NewWebhookHandler(logger *slog.Logger, secrets map[Provider]string) *WebhookHandler {
	return &WebhookHandler{logger: logger, secrets: secrets}
}

// MountRoutes registers the webhook endpoint.
func (h *WebhookHandler) MountRoutes(r chi.Router) {
	r.Post("/{provider}", h.receive)
}

func (h *WebhookHandler) receive(w http.ResponseWriter, r *http.Request) {
	provider := Provider(chi.URLParam(r, "provider"))
	secret, ok := h.secrets[provider]
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown provider")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unreadable body")
		return
	}
	if !VerifySignature(secret, body, r.Header.Get(signatureHeader)) {
		h.logger.Warn("webhook signature rejected", slog.String("provider", string(provider)))
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid signature")
		return
	}

	h.logger.Info("webhook received",
		slog.String("provider", string(provider)),
		slog.Int("bytes", len(body)))
	w.WriteHeader(http.StatusNoContent)
}

// VerifySignature checks a hex-encoded HMAC-SHA256 signature over body.
func VerifySignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), provided)
}
