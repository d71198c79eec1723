package catalog

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToIcebergSchema(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: false},
		{Name: "active", Type: arrow.FixedWidthTypes.Boolean, Nullable: false},
		{Name: "day", Type: arrow.FixedWidthTypes.Date32, Nullable: false},
		{Name: "ts", Type: arrow.FixedWidthTypes.Timestamp_us, Nullable: true},
	}, nil)

	out := ToIcebergSchema(schema)
	assert.Equal(t, "struct", out["type"])
	assert.Equal(t, 0, out["schema-id"])

	fields, ok := out["fields"].([]interface{})
	require.True(t, ok)
	require.Len(t, fields, 6)

	want := []struct {
		name     string
		typ      string
		required bool
	}{
		{"id", "long", true},
		{"name", "string", false},
		{"score", "double", true},
		{"active", "boolean", true},
		{"day", "date", true},
		{"ts", "timestamp", false},
	}
	for i, w := range want {
		f, ok := fields[i].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, i+1, f["id"], "field IDs are sequential from 1")
		assert.Equal(t, w.name, f["name"])
		assert.Equal(t, w.typ, f["type"])
		assert.Equal(t, w.required, f["required"])
	}
}

func TestIcebergTypeFallback(t *testing.T) {
	assert.Equal(t, "int", icebergType(arrow.PrimitiveTypes.Int32))
	assert.Equal(t, "float", icebergType(arrow.PrimitiveTypes.Float32))
	// unsupported types degrade to string rather than failing
	assert.Equal(t, "string", icebergType(arrow.BinaryTypes.Binary))
}

func TestSanitizeProperties(t *testing.T) {
	in := map[string]string{
		"warehouse":            "s3://iceberg-data",
		"s3.secret-access-key": "supersecret",
		"s3.access-key-id":     "AKIA123",
		"token":                "abc",
		"client.region":        "us-east-1",
	}
	out := SanitizeProperties(in)

	assert.Equal(t, "s3://iceberg-data", out["warehouse"])
	assert.Equal(t, "us-east-1", out["client.region"])
	assert.Equal(t, "***", out["s3.secret-access-key"])
	assert.Equal(t, "***", out["s3.access-key-id"])
	assert.Equal(t, "***", out["token"])

	// input is not mutated
	assert.Equal(t, "supersecret", in["s3.secret-access-key"])
}
