package testutil

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/datapassage/icefeed/pkg/dataset"
	"github.com/datapassage/icefeed/pkg/json"
	"github.com/datapassage/icefeed/pkg/payload"
)

// ReceivedIngest captures one /ingest call seen by the mock service.
type ReceivedIngest struct {
	TableName string
	Namespace string
	Dataset   *dataset.Dataset
	RawBody   []byte
}

// MockIngress is an in-process stand-in for the ingress service. It decodes
// envelopes the same way the real service does and records what it saw.
type MockIngress struct {
	Server *httptest.Server

	mu       sync.Mutex
	received []ReceivedIngest

	// FailHealth makes /health return 503.
	FailHealth bool
	// FailIngest makes /ingest return the given status with IngestBody.
	FailIngest int
	IngestBody string
}

// NewMockIngress starts the mock service. The server is shut down with Close.
func NewMockIngress() *MockIngress {
	m := &MockIngress{}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", m.handleHealth)
	mux.HandleFunc("/ingest", m.handleIngest)
	m.Server = httptest.NewServer(mux)
	return m
}

// URL returns the base URL of the mock service.
func (m *MockIngress) URL() string { return m.Server.URL }

// Close shuts the server down.
func (m *MockIngress) Close() { m.Server.Close() }

// Received returns a copy of the ingest calls seen so far.
func (m *MockIngress) Received() []ReceivedIngest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ReceivedIngest, len(m.received))
	copy(out, m.received)
	return out
}

func (m *MockIngress) handleHealth(w http.ResponseWriter, r *http.Request) {
	if m.FailHealth {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"status":"unhealthy","service":"ingress-iceberg"}`)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"healthy","service":"ingress-iceberg"}`)
}

func (m *MockIngress) handleIngest(w http.ResponseWriter, r *http.Request) {
	if m.FailIngest != 0 {
		w.WriteHeader(m.FailIngest)
		fmt.Fprint(w, m.IngestBody)
		return
	}

	var env struct {
		TableName string `json:"table_name"`
		Namespace string `json:"namespace"`
		Data      string `json:"data"`
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeIngestError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if err := json.Unmarshal(body, &env); err != nil {
		writeIngestError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if env.TableName == "" {
		writeIngestError(w, http.StatusBadRequest, "table_name is required")
		return
	}

	raw, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		writeIngestError(w, http.StatusBadRequest, "invalid base64 data")
		return
	}

	ds, err := payload.NewDecoder().DecodeBytes(raw)
	if err != nil {
		writeIngestError(w, http.StatusBadRequest, "invalid Arrow IPC stream")
		return
	}

	m.mu.Lock()
	m.received = append(m.received, ReceivedIngest{
		TableName: env.TableName,
		Namespace: env.Namespace,
		Dataset:   ds,
		RawBody:   body,
	})
	m.mu.Unlock()

	records := uint64(ds.NumRows())
	w.Header().Set("Content-Type", "application/json")
	resp, _ := json.Marshal(map[string]interface{}{
		"success":          true,
		"message":          fmt.Sprintf("Successfully ingested %d records", records),
		"records_ingested": records,
	})
	_, _ = w.Write(resp)
}

func writeIngestError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp, _ := json.Marshal(map[string]interface{}{
		"success": false,
		"message": msg,
	})
	_, _ = w.Write(resp)
}
