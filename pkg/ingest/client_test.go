package ingest_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datapassage/icefeed/pkg/config"
	"github.com/datapassage/icefeed/pkg/dataset"
	"github.com/datapassage/icefeed/pkg/errors"
	"github.com/datapassage/icefeed/pkg/ingest"
	"github.com/datapassage/icefeed/pkg/payload"
	"github.com/datapassage/icefeed/pkg/testutil"
)

func newTestClient(t *testing.T, endpoint string, opts ...ingest.Option) *ingest.Client {
	t.Helper()
	cfg := config.NewClientConfig()
	cfg.Endpoint.ServiceURL = endpoint
	client, err := ingest.NewClient(cfg, testutil.TestLogger(t), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestHealth(t *testing.T) {
	mock := testutil.NewMockIngress()
	defer mock.Close()

	client := newTestClient(t, mock.URL())
	status, err := client.Health(testutil.TestContext(t))
	require.NoError(t, err)

	assert.True(t, status.Healthy())
	assert.Equal(t, "ingress-iceberg", status.Service)
	assert.Equal(t, http.StatusOK, status.HTTPStatus)
	assert.JSONEq(t, `{"status":"healthy","service":"ingress-iceberg"}`, string(status.Raw))
}

func TestHealthUnhealthyService(t *testing.T) {
	mock := testutil.NewMockIngress()
	defer mock.Close()
	mock.FailHealth = true

	client := newTestClient(t, mock.URL())
	status, err := client.Health(testutil.TestContext(t))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeHTTP))

	// the response is still surfaced for verbatim reporting
	require.NotNil(t, status)
	assert.Equal(t, http.StatusServiceUnavailable, status.HTTPStatus)
	assert.False(t, status.Healthy())
}

func TestIngestDataset(t *testing.T) {
	mock := testutil.NewMockIngress()
	defer mock.Close()

	client := newTestClient(t, mock.URL())
	ds := dataset.SampleUsers()

	resp, err := client.IngestDataset(testutil.TestContext(t), "test_table", "default", ds)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.RecordsIngested)
	assert.Equal(t, uint64(5), *resp.RecordsIngested)

	received := mock.Received()
	require.Len(t, received, 1)
	assert.Equal(t, "test_table", received[0].TableName)
	assert.Equal(t, "default", received[0].Namespace)
	assert.True(t, ds.Equal(received[0].Dataset), "service must see the exact rows that were sent")
}

func TestIngestCompressedPayload(t *testing.T) {
	mock := testutil.NewMockIngress()
	defer mock.Close()

	enc := payload.NewEncoder(payload.WithCompression(payload.CompressionZstd))
	client := newTestClient(t, mock.URL(), ingest.WithEncoder(enc))

	ds := dataset.SampleMixed()
	resp, err := client.IngestDataset(testutil.TestContext(t), "test_table", "default", ds)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	received := mock.Received()
	require.Len(t, received, 1)
	assert.True(t, ds.Equal(received[0].Dataset))
}

func TestIngestRejectedByService(t *testing.T) {
	mock := testutil.NewMockIngress()
	defer mock.Close()
	mock.FailIngest = http.StatusInternalServerError
	mock.IngestBody = `{"success":false,"message":"catalog unavailable"}`

	client := newTestClient(t, mock.URL())
	resp, err := client.IngestDataset(testutil.TestContext(t), "test_table", "default", dataset.SampleUsers())
	require.Error(t, err)

	structured, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeHTTP, structured.Type)
	code, ok := structured.Detail("status_code")
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, code)

	// body is preserved on both the error and the response
	require.NotNil(t, resp)
	assert.False(t, resp.Success)
	assert.Equal(t, "catalog unavailable", resp.Message)
	assert.Equal(t, http.StatusInternalServerError, resp.HTTPStatus)
}

func TestIngestValidation(t *testing.T) {
	mock := testutil.NewMockIngress()
	defer mock.Close()
	client := newTestClient(t, mock.URL())
	ctx := testutil.TestContext(t)

	_, err := client.Ingest(ctx, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = client.Ingest(ctx, ingest.NewEnvelope("", "default", "aGVsbG8="))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Empty(t, mock.Received(), "invalid envelopes must not reach the wire")
}

func TestConnectionRefused(t *testing.T) {
	// a port nothing listens on
	client := newTestClient(t, "http://127.0.0.1:1")

	_, err := client.Health(testutil.TestContext(t))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection),
		"an unreachable health endpoint must surface as a connection error")

	hint, ok := errors.DetailIn(err, ingest.HintDetailKey)
	require.True(t, ok, "connection failures must carry a remediation hint")
	assert.Contains(t, hint, "make sure the service is running on http://127.0.0.1:1")

	_, err = client.IngestDataset(testutil.TestContext(t), "test_table", "default", dataset.SampleUsers())
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err) || errors.IsType(err, errors.ErrorTypeConnection))
}
