// Package ingest provides the client for the ingress-iceberg service: it
// wraps encoded Arrow payloads in the ingest envelope and issues the health
// and ingest requests.
package ingest

import (
	"encoding/base64"

	"github.com/datapassage/icefeed/pkg/errors"
)

// Envelope is the JSON body of an ingest request. It carries exactly three
// keys: the target table, the namespace and the base64-encoded Arrow IPC
// stream.
type Envelope struct {
	TableName string `json:"table_name"`
	Namespace string `json:"namespace"`
	Data      string `json:"data"`
}

// NewEnvelope assembles an envelope from ingestion metadata and an encoded
// payload.
func NewEnvelope(tableName, namespace, data string) *Envelope {
	return &Envelope{
		TableName: tableName,
		Namespace: namespace,
		Data:      data,
	}
}

// Validate checks the envelope invariants: non-empty identifiers and a
// non-empty data string that decodes as standard RFC 4648 base64. Identifier
// syntax beyond presence is the service's concern.
func (e *Envelope) Validate() error {
	if e.TableName == "" {
		return errors.New(errors.ErrorTypeValidation, "table_name must not be empty")
	}
	if e.Namespace == "" {
		return errors.New(errors.ErrorTypeValidation, "namespace must not be empty")
	}
	if e.Data == "" {
		return errors.New(errors.ErrorTypeValidation, "data must not be empty")
	}
	if _, err := base64.StdEncoding.DecodeString(e.Data); err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "data is not valid base64")
	}
	return nil
}

// HealthStatus is the health endpoint response.
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`

	// HTTPStatus and Raw preserve the verbatim response for reporting
	HTTPStatus int    `json:"-"`
	Raw        []byte `json:"-"`
}

// Healthy reports whether the service considers itself healthy.
func (h *HealthStatus) Healthy() bool {
	return h.Status == "healthy"
}

// IngestResponse is the ingest endpoint response.
type IngestResponse struct {
	Success         bool    `json:"success"`
	Message         string  `json:"message"`
	RecordsIngested *uint64 `json:"records_ingested"`

	// HTTPStatus and Raw preserve the verbatim response for reporting
	HTTPStatus int    `json:"-"`
	Raw        []byte `json:"-"`
}
