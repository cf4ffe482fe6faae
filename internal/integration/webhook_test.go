package integration

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func signFor(t *testing.T, secret string, body []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func newWebhookRouter(secrets map[Provider]string) http.Handler {
	r := chi.NewRouter()
	h := NewWebhookHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), secrets)
	r.Route("/webhooks", func(r chi.Router) {
		h.MountRoutes(r)
	})
	return r
}

func TestWebhookAcceptsValidSignature(t *testing.T) {
	router := newWebhookRouter(map[Provider]string{ProviderFortnox: "topsecret"})
	body := []byte(`{"event":"invoice.paid"}`)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/fortnox", bytes.NewReader(body))
	req.Header.Set(signatureHeader, signFor(t, "topsecret", body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	router := newWebhookRouter(map[Provider]string{ProviderFortnox: "topsecret"})
	body := []byte(`{"event":"invoice.paid"}`)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/fortnox", bytes.NewReader(body))
	req.Header.Set(signatureHeader, signFor(t, "someone-else", body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookUnknownProvider(t *testing.T) {
	router := newWebhookRouter(map[Provider]string{ProviderFortnox: "topsecret"})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/bokio", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
