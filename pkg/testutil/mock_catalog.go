package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/datapassage/icefeed/pkg/json"
)

// MockCatalog is an in-process Iceberg REST catalog covering the endpoints
// the probe client uses.
type MockCatalog struct {
	Server *httptest.Server

	mu         sync.Mutex
	namespaces map[string][]string
	tables     map[string][]string // namespace -> table names
}

// NewMockCatalog starts the mock catalog with no namespaces.
func NewMockCatalog() *MockCatalog {
	m := &MockCatalog{
		namespaces: make(map[string][]string),
		tables:     make(map[string][]string),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// URL returns the base URL of the mock catalog.
func (m *MockCatalog) URL() string { return m.Server.URL }

// Close shuts the server down.
func (m *MockCatalog) Close() { m.Server.Close() }

// AddNamespace seeds a namespace, e.g. "default" or "a.b".
func (m *MockCatalog) AddNamespace(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.namespaces[name] = strings.Split(name, ".")
}

// AddTable seeds a table in a namespace.
func (m *MockCatalog) AddTable(namespace, table string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.namespaces[namespace]; !ok {
		m.namespaces[namespace] = strings.Split(namespace, ".")
	}
	m.tables[namespace] = append(m.tables[namespace], table)
}

func (m *MockCatalog) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := r.URL.Path
	switch {
	case path == "/v1/config":
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"defaults":  map[string]string{},
			"overrides": map[string]string{},
		})

	case path == "/v1/namespaces" && r.Method == http.MethodGet:
		names := make([][]string, 0, len(m.namespaces))
		for _, parts := range m.namespaces {
			names = append(names, parts)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"namespaces": names})

	case path == "/v1/namespaces" && r.Method == http.MethodPost:
		var req struct {
			Namespace []string `json:"namespace"`
		}
		if err := decodeBody(r, &req); err != nil || len(req.Namespace) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		key := strings.Join(req.Namespace, ".")
		if _, ok := m.namespaces[key]; ok {
			w.WriteHeader(http.StatusConflict)
			return
		}
		m.namespaces[key] = req.Namespace
		writeJSON(w, http.StatusOK, map[string]interface{}{"namespace": req.Namespace})

	case strings.HasSuffix(path, "/tables") && r.Method == http.MethodGet:
		ns := namespaceFromPath(path)
		idents := make([]map[string]interface{}, 0)
		for _, tbl := range m.tables[ns] {
			idents = append(idents, map[string]interface{}{
				"namespace": strings.Split(ns, "."),
				"name":      tbl,
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"identifiers": idents})

	case strings.HasSuffix(path, "/tables") && r.Method == http.MethodPost:
		ns := namespaceFromPath(path)
		var req struct {
			Name string `json:"name"`
		}
		if err := decodeBody(r, &req); err != nil || req.Name == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if m.hasTable(ns, req.Name) {
			w.WriteHeader(http.StatusConflict)
			return
		}
		m.tables[ns] = append(m.tables[ns], req.Name)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"metadata-location": fmt.Sprintf("s3://iceberg-data/%s/%s/metadata.json", ns, req.Name),
		})

	case r.Method == http.MethodHead && strings.Contains(path, "/tables/"):
		parts := strings.Split(strings.TrimPrefix(path, "/v1/namespaces/"), "/tables/")
		if len(parts) == 2 && m.hasTable(parts[0], parts[1]) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusNotFound)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (m *MockCatalog) hasTable(ns, table string) bool {
	for _, t := range m.tables[ns] {
		if t == table {
			return true
		}
	}
	return false
}

func namespaceFromPath(path string) string {
	trimmed := strings.TrimPrefix(path, "/v1/namespaces/")
	return strings.TrimSuffix(trimmed, "/tables")
}

func decodeBody(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body, _ := json.Marshal(v)
	_, _ = w.Write(body)
}
