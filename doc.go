// Package icefeed is a smoke-test client for ingress-iceberg services.
//
// An ingress-iceberg service accepts JSON envelopes whose payload is a
// base64-encoded Arrow IPC stream and writes the rows into Iceberg tables.
// Icefeed is the other half of that contract: it synthesizes columnar sample
// data, serializes it exactly the way the service expects, sends it, and
// reports what happened.
//
// # Key Packages
//
//	pkg/dataset   - In-memory columnar datasets and sample fixtures
//	pkg/payload   - Arrow IPC serialization and base64 payload codec
//	pkg/ingest    - HTTP client for the /health and /ingest endpoints
//	pkg/catalog   - Iceberg REST catalog probe for post-ingest verification
//	pkg/clients   - HTTP transport with retries, rate limiting, circuit breaking
//	pkg/config    - YAML configuration with ${VAR} environment substitution
//	pkg/errors    - Structured error handling with a typed taxonomy
//	pkg/logger    - Structured logging
//	internal/smoke - Orchestrated health/ingest/verify smoke runs
//
// # Quick Start
//
// Send the built-in sample batch to a local service:
//
//	cfg := config.NewClientConfig()
//	client, err := ingest.NewClient(cfg, logger.Get())
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	resp, err := client.IngestDataset(ctx, "test_table", "default", dataset.SampleUsers())
//
// The icefeed binary wraps the same flow:
//
//	icefeed health --endpoint http://localhost:3000
//	icefeed ingest --table test_table --namespace default
//	icefeed smoke --verify
package icefeed
