package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ninjacatsolana/nc-buyboy-v2/internal/cooldown"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/dedup"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/event"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/feed"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/filter"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/ingest"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/publisher"
)

func newTestAPI(t *testing.T, secret string) *API {
	t.Helper()

	minAmount := decimal.NewFromInt(100)
	hub := feed.NewHub(zerolog.Nop())
	pub := publisher.New(publisher.Options{Symbol: "NC"}, nil, nil, hub, nil, zerolog.Nop())

	pipeline := ingest.New(
		event.NewNormalizer("NC", minAmount),
		filter.NewEvaluator("NC", minAmount, false),
		dedup.NewSet(0),
		cooldown.NewGate(20*time.Second),
		pub,
		zerolog.Nop(),
	)

	return New(pipeline, pub, hub, secret, zerolog.Nop())
}

func postWebhook(t *testing.T, api *API, secret, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	if secret != "" {
		req.Header.Set("Authorization", secret)
	}
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, req)
	return rec
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	api := newTestAPI(t, "s3cret")

	rec := postWebhook(t, api, "wrong", `{"signature":"sigA"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	// nothing was processed: no current alert exists
	if _, ok := api.pub.Current(); ok {
		t.Fatal("rejected request must not reach the pipeline")
	}
}

func TestWebhookMissingSecret(t *testing.T) {
	api := newTestAPI(t, "s3cret")

	rec := postWebhook(t, api, "", `{"signature":"sigA"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestWebhookNoSecretConfigured(t *testing.T) {
	api := newTestAPI(t, "")

	rec := postWebhook(t, api, "", `{"signature":"sigA"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestWebhookSingleObjectBody(t *testing.T) {
	api := newTestAPI(t, "s3cret")

	body := `{"signature":"sigA","tokenTransfers":[{"mint":"NC","tokenAmount":500}]}`
	rec := postWebhook(t, api, "s3cret", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var result ingest.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Received != 1 || result.Accepted != 1 || result.Triggered != 1 {
		t.Fatalf("result = %+v", result)
	}
}

func TestWebhookArrayBodyWithMalformedItem(t *testing.T) {
	api := newTestAPI(t, "s3cret")

	body := `[
		{"signature":"sig1","tokenTransfers":[{"mint":"NC","tokenAmount":500}]},
		"not an object",
		{"signature":"sig3","tokenTransfers":[{"mint":"NC","tokenAmount":700}]}
	]`
	rec := postWebhook(t, api, "s3cret", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var result ingest.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Received != 3 || result.Malformed != 1 || result.Accepted != 2 {
		t.Fatalf("result = %+v", result)
	}
	// second qualifying item is held back by the cooldown
	if result.Triggered != 1 {
		t.Fatalf("triggered = %d, want 1", result.Triggered)
	}
}

func TestWebhookInvalidBody(t *testing.T) {
	api := newTestAPI(t, "")

	for _, body := range []string{``, `not json`, `[not json]`} {
		rec := postWebhook(t, api, "", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestCurrentAlertLifecycle(t *testing.T) {
	api := newTestAPI(t, "")
	router := api.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/alert", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status before any alert = %d, want 404", rec.Code)
	}

	postWebhook(t, api, "", `{"signature":"sigA","tokenTransfers":[{"mint":"NC","tokenAmount":500}]}`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/alert", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status after alert = %d", rec.Code)
	}

	var alert publisher.Alert
	if err := json.Unmarshal(rec.Body.Bytes(), &alert); err != nil {
		t.Fatalf("decode alert: %v", err)
	}
	if alert.Signature != "sigA" || !alert.Amount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("alert = %+v", alert)
	}
}

func TestCurrentImageNotFoundWithoutRenderer(t *testing.T) {
	api := newTestAPI(t, "")

	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/alert/image", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t, "s3cret")

	// health stays open even when a webhook secret is configured
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
