package catalog

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// ToIcebergSchema converts an Arrow schema to the Iceberg REST schema JSON
// shape. Field IDs are assigned sequentially starting at 1, and a field is
// required exactly when the Arrow field is not nullable.
func ToIcebergSchema(schema *arrow.Schema) map[string]interface{} {
	fields := make([]interface{}, 0, schema.NumFields())
	for i, f := range schema.Fields() {
		fields = append(fields, map[string]interface{}{
			"id":       i + 1,
			"name":     f.Name,
			"type":     icebergType(f.Type),
			"required": !f.Nullable,
		})
	}
	return map[string]interface{}{
		"type":                 "struct",
		"schema-id":            0,
		"fields":               fields,
		"identifier-field-ids": []interface{}{},
	}
}

func icebergType(dt arrow.DataType) string {
	switch dt.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.UINT8, arrow.UINT16, arrow.UINT32:
		return "int"
	case arrow.INT64, arrow.UINT64:
		return "long"
	case arrow.FLOAT32:
		return "float"
	case arrow.FLOAT64:
		return "double"
	case arrow.STRING, arrow.LARGE_STRING:
		return "string"
	case arrow.BOOL:
		return "boolean"
	case arrow.DATE32, arrow.DATE64:
		return "date"
	case arrow.TIMESTAMP:
		return "timestamp"
	default:
		return "string"
	}
}

// SanitizeProperties returns a copy of props with credential-looking values
// masked, safe for logging.
func SanitizeProperties(props map[string]string) map[string]string {
	out := make(map[string]string, len(props))
	for k, v := range props {
		if isSensitiveProperty(k) {
			out[k] = "***"
			continue
		}
		out[k] = v
	}
	return out
}

func isSensitiveProperty(key string) bool {
	lower := strings.ToLower(key)
	for _, marker := range []string{"secret", "password", "token", "credential", "access-key", "access_key"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
