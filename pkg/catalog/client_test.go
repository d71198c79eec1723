package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datapassage/icefeed/pkg/catalog"
	"github.com/datapassage/icefeed/pkg/dataset"
	"github.com/datapassage/icefeed/pkg/errors"
	"github.com/datapassage/icefeed/pkg/payload"
	"github.com/datapassage/icefeed/pkg/testutil"
)

func newTestCatalog(t *testing.T) (*catalog.Client, *testutil.MockCatalog) {
	t.Helper()
	mock := testutil.NewMockCatalog()
	t.Cleanup(mock.Close)

	client, err := catalog.NewClient(mock.URL(), testutil.TestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mock
}

func TestProbe(t *testing.T) {
	client, _ := newTestCatalog(t)
	assert.NoError(t, client.Probe(testutil.TestContext(t)))
}

func TestProbeUnreachable(t *testing.T) {
	client, err := catalog.NewClient("http://127.0.0.1:1", testutil.TestLogger(t))
	require.NoError(t, err)
	defer client.Close()

	err = client.Probe(testutil.TestContext(t))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
	hint, ok := errors.DetailIn(err, "hint")
	require.True(t, ok)
	assert.Contains(t, hint, "make sure the REST catalog is running")
}

func TestEnsureNamespace(t *testing.T) {
	client, _ := newTestCatalog(t)
	ctx := testutil.TestContext(t)

	require.NoError(t, client.EnsureNamespace(ctx, "default"))

	namespaces, err := client.ListNamespaces(ctx)
	require.NoError(t, err)
	assert.Contains(t, namespaces, []string{"default"})

	// idempotent
	require.NoError(t, client.EnsureNamespace(ctx, "default"))

	// dotted names split into parts
	require.NoError(t, client.EnsureNamespace(ctx, "analytics.daily"))
	namespaces, err = client.ListNamespaces(ctx)
	require.NoError(t, err)
	assert.Contains(t, namespaces, []string{"analytics", "daily"})
}

func TestTableLifecycle(t *testing.T) {
	client, mock := newTestCatalog(t)
	ctx := testutil.TestContext(t)
	mock.AddNamespace("default")

	exists, err := client.TableExists(ctx, "default", "test_table")
	require.NoError(t, err)
	assert.False(t, exists)

	schema, err := payload.ToArrowSchema(dataset.SampleUsers())
	require.NoError(t, err)

	require.NoError(t, client.EnsureTable(ctx, "default", "test_table", catalog.ToIcebergSchema(schema)))

	exists, err = client.TableExists(ctx, "default", "test_table")
	require.NoError(t, err)
	assert.True(t, exists)

	tables, err := client.ListTables(ctx, "default")
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "test_table", tables[0].Name)

	// idempotent
	require.NoError(t, client.EnsureTable(ctx, "default", "test_table", catalog.ToIcebergSchema(schema)))
}

func TestNewClientRejectsEmptyURL(t *testing.T) {
	_, err := catalog.NewClient("", testutil.TestLogger(t))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
