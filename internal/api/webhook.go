package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/ninjacatsolana/nc-buyboy-v2/internal/metrics"
)

const maxBodyBytes = 4 << 20

// handleWebhook accepts a JSON body that is either a single payload object
// or an ordered array of them, and runs the batch through the pipeline.
func (a *API) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		metrics.WebhooksTotal.WithLabelValues("read_error").Inc()
		http.Error(w, `{"error":"read body"}`, http.StatusBadRequest)
		return
	}

	items, ok := splitBatch(body)
	if !ok {
		metrics.WebhooksTotal.WithLabelValues("invalid_body").Inc()
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	result := a.pipeline.Process(r.Context(), items)
	metrics.WebhooksTotal.WithLabelValues("processed").Inc()

	a.logger.Info().
		Int("received", result.Received).
		Int("accepted", result.Accepted).
		Int("triggered", result.Triggered).
		Int("duplicates", result.Duplicates).
		Msg("webhook batch processed")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// splitBatch normalises the body into a list of raw items. A top-level
// object is treated as a batch of one.
func splitBatch(body []byte) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, false
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, false
		}
		return items, true
	}

	if !json.Valid(trimmed) {
		return nil, false
	}
	return []json.RawMessage{trimmed}, true
}
