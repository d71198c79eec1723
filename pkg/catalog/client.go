// Package catalog provides a minimal Iceberg REST catalog client used to
// verify from the outside that the ingress service materialized a table. It
// speaks the few /v1 endpoints the service itself depends on: config probe,
// namespace listing and creation, and table lookup and creation.
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/datapassage/icefeed/pkg/clients"
	"github.com/datapassage/icefeed/pkg/errors"
	"github.com/datapassage/icefeed/pkg/json"
	"github.com/datapassage/icefeed/pkg/logger"
)

// TableIdentifier names a table within a namespace.
type TableIdentifier struct {
	Namespace []string `json:"namespace"`
	Name      string   `json:"name"`
}

// Client is a REST catalog client.
type Client struct {
	baseURL string
	http    *clients.HTTPClient
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(hc *clients.HTTPClient) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a catalog client for the given base URL
// (e.g. http://localhost:8181).
func NewClient(baseURL string, log *zap.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "catalog base URL must not be empty")
	}
	if log == nil {
		log = logger.Get()
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  log.With(zap.String("component", "catalog_client")),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = clients.NewHTTPClient(nil, log)
	}
	return c, nil
}

// Probe checks connectivity to the catalog via its config endpoint.
func (c *Client) Probe(ctx context.Context) error {
	status, _, err := c.get(ctx, "/v1/config")
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return errors.Newf(errors.ErrorTypeHTTP, "catalog config endpoint returned %d", status).
			WithDetail("status_code", status)
	}
	c.logger.Debug("catalog reachable", zap.String("url", c.baseURL))
	return nil
}

// ListNamespaces returns all namespaces, each as its dotted parts.
func (c *Client) ListNamespaces(ctx context.Context) ([][]string, error) {
	status, body, err := c.get(ctx, "/v1/namespaces")
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, errors.Newf(errors.ErrorTypeHTTP, "namespace listing returned %d", status).
			WithDetail("status_code", status)
	}

	var out struct {
		Namespaces [][]string `json:"namespaces"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to parse namespace listing")
	}
	return out.Namespaces, nil
}

// EnsureNamespace creates the namespace if it does not exist. Dotted names
// are split into parts.
func (c *Client) EnsureNamespace(ctx context.Context, namespace string) error {
	parts := strings.Split(namespace, ".")

	existing, err := c.ListNamespaces(ctx)
	if err != nil {
		return err
	}
	for _, ns := range existing {
		if equalParts(ns, parts) {
			return nil
		}
	}

	reqBody, err := json.Marshal(map[string]interface{}{
		"namespace":  parts,
		"properties": map[string]string{},
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeEncoding, "failed to marshal namespace request")
	}

	status, body, err := c.post(ctx, "/v1/namespaces", reqBody)
	if err != nil {
		return err
	}
	// 409 means someone else created it first, which is fine
	if (status < 200 || status >= 300) && status != http.StatusConflict {
		return errors.Newf(errors.ErrorTypeHTTP, "namespace creation returned %d", status).
			WithDetail("status_code", status).
			WithDetail("body", string(body))
	}

	c.logger.Info("namespace created", zap.String("namespace", namespace))
	return nil
}

// ListTables returns the table identifiers within a namespace.
func (c *Client) ListTables(ctx context.Context, namespace string) ([]TableIdentifier, error) {
	status, body, err := c.get(ctx, "/v1/namespaces/"+namespace+"/tables")
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, errors.Newf(errors.ErrorTypeHTTP, "table listing returned %d", status).
			WithDetail("status_code", status)
	}

	var out struct {
		Identifiers []TableIdentifier `json:"identifiers"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to parse table listing")
	}
	return out.Identifiers, nil
}

// TableExists checks for a table via a HEAD request.
func (c *Client) TableExists(ctx context.Context, namespace, table string) (bool, error) {
	resp, err := c.http.Head(ctx, c.baseURL+"/v1/namespaces/"+namespace+"/tables/"+table, nil)
	if err != nil {
		return false, c.classify(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

// EnsureTable creates the table with the given Iceberg schema if it does not
// exist. The namespace is created first when missing.
func (c *Client) EnsureTable(ctx context.Context, namespace, table string, schema map[string]interface{}) error {
	if err := c.EnsureNamespace(ctx, namespace); err != nil {
		return err
	}

	exists, err := c.TableExists(ctx, namespace, table)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	reqBody, err := json.Marshal(map[string]interface{}{
		"name":           table,
		"location":       fmt.Sprintf("s3://iceberg-data/%s/%s", namespace, table),
		"schema":         schema,
		"partition-spec": []interface{}{},
		"write-order": map[string]interface{}{
			"order-id": 0,
			"fields":   []interface{}{},
		},
		"stage-create": true,
		"properties": map[string]string{
			"write.format.default":           "parquet",
			"write.metadata.metrics.default": "truncate(16)",
		},
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeEncoding, "failed to marshal table request")
	}

	status, body, err := c.post(ctx, "/v1/namespaces/"+namespace+"/tables", reqBody)
	if err != nil {
		return err
	}
	if (status < 200 || status >= 300) && status != http.StatusConflict {
		return errors.Newf(errors.ErrorTypeHTTP, "table creation returned %d", status).
			WithDetail("status_code", status).
			WithDetail("body", string(body))
	}

	c.logger.Info("table created",
		zap.String("namespace", namespace),
		zap.String("table", table))
	return nil
}

// Close releases transport resources.
func (c *Client) Close() error {
	return c.http.Close()
}

func (c *Client) get(ctx context.Context, path string) (int, []byte, error) {
	resp, err := c.http.Get(ctx, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, c.classify(err)
	}
	return readResponse(resp)
}

func (c *Client) post(ctx context.Context, path string, body []byte) (int, []byte, error) {
	headers := map[string]string{"Content-Type": "application/json"}
	resp, err := c.http.Post(ctx, c.baseURL+path, bytes.NewReader(body), headers)
	if err != nil {
		return 0, nil, c.classify(err)
	}
	return readResponse(resp)
}

func (c *Client) classify(err error) error {
	if structured, ok := errors.As(err); ok {
		return structured
	}
	return errors.Wrap(err, errors.ErrorTypeConnection, "could not connect to the catalog").
		WithDetail("hint", "make sure the REST catalog is running on "+c.baseURL)
}

func readResponse(resp *http.Response) (int, []byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read catalog response")
	}
	return resp.StatusCode, body, nil
}

func equalParts(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
