package ingest

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datapassage/icefeed/pkg/clients"
	"github.com/datapassage/icefeed/pkg/config"
	"github.com/datapassage/icefeed/pkg/dataset"
	"github.com/datapassage/icefeed/pkg/errors"
	"github.com/datapassage/icefeed/pkg/json"
	"github.com/datapassage/icefeed/pkg/logger"
	"github.com/datapassage/icefeed/pkg/observability"
	"github.com/datapassage/icefeed/pkg/payload"
)

// HintDetailKey is the error detail carrying the remediation hint attached to
// connection failures.
const HintDetailKey = "hint"

// Client talks to an ingress-iceberg service.
type Client struct {
	cfg     *config.ClientConfig
	http    *clients.HTTPClient
	logger  *zap.Logger
	encoder *payload.Encoder
}

// Option configures a Client.
type Option func(*Client)

// WithEncoder replaces the default payload encoder, e.g. to enable
// compression.
func WithEncoder(enc *payload.Encoder) Option {
	return func(c *Client) { c.encoder = enc }
}

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(hc *clients.HTTPClient) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a client for the service configured in cfg.
func NewClient(cfg *config.ClientConfig, log *zap.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = config.NewClientConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid client configuration")
	}
	if log == nil {
		log = logger.Get()
	}

	c := &Client{
		cfg:     cfg,
		logger:  log.With(zap.String("component", "ingest_client")),
		encoder: payload.NewEncoder(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = clients.NewHTTPClient(clients.HTTPConfigFromClient(cfg), log)
	}

	return c, nil
}

// Endpoint returns the configured service base URL.
func (c *Client) Endpoint() string {
	return strings.TrimRight(c.cfg.Endpoint.ServiceURL, "/")
}

// Health probes the health endpoint with an empty POST and parses the JSON
// response. Non-2xx statuses are returned as typed errors carrying the status
// code and verbatim body.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	ctx = context.WithValue(ctx, logger.RequestIDKey, uuid.NewString())
	log := logger.WithContext(ctx)

	ctx, span := observability.NewSpan(ctx, "icefeed.health")
	defer span.End()
	start := time.Now()

	url := c.Endpoint() + "/health"
	span.SetAttribute("endpoint", url)
	log.Debug("checking service health", zap.String("url", url))

	status, body, err := c.post(ctx, url, nil)
	observability.ObserveRequest("health", statusLabel(status, err), time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	hs := &HealthStatus{HTTPStatus: status, Raw: body}
	if err := json.Unmarshal(body, hs); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to parse health response").
			WithDetail("body", string(body))
	}
	if status < 200 || status >= 300 {
		return hs, errors.Newf(errors.ErrorTypeHTTP, "health endpoint returned %d", status).
			WithDetail("status_code", status).
			WithDetail("body", string(body))
	}

	observability.RecordHealthCheck(hs.Healthy())
	log.Info("service health checked",
		zap.Int("status_code", status),
		zap.String("status", hs.Status))
	return hs, nil
}

// Ingest sends the envelope to the ingest endpoint and parses the JSON
// response. Non-2xx statuses are returned as typed errors carrying the status
// code and verbatim body.
func (c *Client) Ingest(ctx context.Context, env *Envelope) (*IngestResponse, error) {
	if env == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "envelope must not be nil")
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, logger.RequestIDKey, uuid.NewString())
	ctx = context.WithValue(ctx, logger.TableKey, env.TableName)
	ctx = context.WithValue(ctx, logger.NamespaceKey, env.Namespace)
	log := logger.WithContext(ctx)

	ctx, span := observability.NewSpan(ctx, "icefeed.ingest")
	defer span.End()
	span.SetAttribute("table", env.TableName)
	span.SetAttribute("namespace", env.Namespace)
	start := time.Now()

	reqBody, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeEncoding, "failed to marshal envelope")
	}

	url := c.Endpoint() + "/ingest"
	log.Debug("sending ingest request",
		zap.String("url", url),
		zap.Int("payload_bytes", len(env.Data)))

	status, body, err := c.post(ctx, url, reqBody)
	observability.ObserveRequest("ingest", statusLabel(status, err), time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	resp := &IngestResponse{HTTPStatus: status, Raw: body}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to parse ingest response").
			WithDetail("body", string(body))
	}
	if status < 200 || status >= 300 {
		return resp, errors.Newf(errors.ErrorTypeHTTP, "ingest endpoint returned %d", status).
			WithDetail("status_code", status).
			WithDetail("body", string(body))
	}

	rows := uint64(0)
	if resp.RecordsIngested != nil {
		rows = *resp.RecordsIngested
	}
	observability.RecordIngest(len(reqBody), rows, resp.Success)
	log.Info("ingest request completed",
		zap.Int("status_code", status),
		zap.Bool("success", resp.Success),
		zap.Uint64("records_ingested", rows))
	return resp, nil
}

// IngestDataset encodes a dataset, assembles the envelope and sends it.
func (c *Client) IngestDataset(ctx context.Context, tableName, namespace string, ds *dataset.Dataset) (*IngestResponse, error) {
	encoded, err := c.encoder.Encode(ds)
	if err != nil {
		return nil, err
	}
	return c.Ingest(ctx, NewEnvelope(tableName, namespace, encoded))
}

// Stats returns transport statistics for the underlying HTTP client.
func (c *Client) Stats() clients.HTTPStats {
	return c.http.GetStats()
}

// Close releases transport resources.
func (c *Client) Close() error {
	return c.http.Close()
}

// post issues a POST, classifying transport failures and draining the body.
func (c *Client) post(ctx context.Context, url string, body []byte) (int, []byte, error) {
	headers := map[string]string{
		"X-Request-Id": requestID(ctx),
	}
	if body != nil {
		headers["Content-Type"] = "application/json"
	}

	build := func() (*http.Request, error) {
		var r io.Reader
		if body != nil {
			r = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, r)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	}

	resp, err := c.http.DoWithRetry(ctx, build, errors.IsRetryable)
	if err != nil {
		return 0, nil, c.classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read response body")
	}

	return resp.StatusCode, respBody, nil
}

// classifyTransportError maps transport failures onto the error taxonomy:
// unreachable hosts become connection errors carrying a remediation hint,
// deadline expiry becomes a timeout.
func (c *Client) classifyTransportError(err error) error {
	if structured, ok := errors.As(err); ok {
		return structured
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.ErrorTypeTimeout, "request timed out")
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrap(err, errors.ErrorTypeTimeout, "request timed out")
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if stderrors.As(err, &opErr) || stderrors.As(err, &dnsErr) {
		return errors.Wrap(err, errors.ErrorTypeConnection, "could not connect to the service").
			WithDetail(HintDetailKey, "make sure the service is running on "+c.Endpoint())
	}

	return errors.Wrap(err, errors.ErrorTypeInternal, "request failed")
}

func statusLabel(status int, err error) string {
	if err != nil {
		return "error"
	}
	return strconv.Itoa(status)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		return id
	}
	return uuid.NewString()
}
