package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockCore struct {
	calls []string
	err   error
}

func (m *mockCore) ProcessWebhook(_ context.Context, source string, body []byte) error {
	m.calls = append(m.calls, source)
	return m.err
}

func TestReceive_AlwaysAcknowledges(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		body      string
		coreErr   error
		wantCalls int
	}{
		{
			name:      "valid payload",
			source:    "printify",
			body:      `{"type":"order:sent-to-production","resource":{"id":"pf-1"}}`,
			wantCalls: 1,
		},
		{
			name:      "core failure still acknowledged",
			source:    "gelato",
			body:      `{"orderReferenceId":"missing"}`,
			coreErr:   fmt.Errorf("order not found"),
			wantCalls: 1,
		},
		{
			name:      "unknown source still acknowledged",
			source:    "fedex",
			body:      `{}`,
			coreErr:   fmt.Errorf("unknown webhook source"),
			wantCalls: 1,
		},
		{
			name:      "empty body is a probe, core not invoked",
			source:    "printify",
			body:      "",
			wantCalls: 0,
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core := &mockCore{err: tt.coreErr}
			handler := Receive(logger, core)

			req := httptest.NewRequest(http.MethodPost,
				"/fulfillment/webhook?source="+tt.source,
				bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			handler(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
			if len(core.calls) != tt.wantCalls {
				t.Errorf("core invoked %d times, want %d", len(core.calls), tt.wantCalls)
			}
			if tt.wantCalls > 0 && core.calls[0] != tt.source {
				t.Errorf("source = %q, want %q", core.calls[0], tt.source)
			}

			var resp map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("response is not json: %v", err)
			}
			if success, _ := resp["success"].(bool); !success {
				t.Errorf("response success = %v, want true", resp["success"])
			}
		})
	}
}
