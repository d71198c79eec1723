// Package payload implements the transport encoding for ingest requests:
// a Dataset is serialized to an Arrow IPC stream (schema followed by record
// batches) and the bytes are base64-encoded for embedding in a JSON envelope.
//
// The encoding is lossless and deterministic: decoding reproduces the exact
// column names, order, types and values, and identical input always yields
// byte-identical output.
package payload

import (
	"bytes"
	"encoding/base64"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/datapassage/icefeed/pkg/dataset"
	"github.com/datapassage/icefeed/pkg/errors"
)

// Compression identifies an optional IPC body compression codec.
type Compression string

const (
	// CompressionNone disables body compression (the default)
	CompressionNone Compression = ""
	// CompressionZstd compresses record batch bodies with zstd
	CompressionZstd Compression = "zstd"
	// CompressionLZ4 compresses record batch bodies with lz4
	CompressionLZ4 Compression = "lz4"
)

// Option configures an Encoder.
type Option func(*Encoder)

// WithAllocator sets the Arrow allocator used while building records.
func WithAllocator(mem memory.Allocator) Option {
	return func(e *Encoder) { e.alloc = mem }
}

// WithCompression enables IPC body compression. Compressed payloads remain
// round-trippable; determinism is only guaranteed for the default options.
func WithCompression(c Compression) Option {
	return func(e *Encoder) { e.compression = c }
}

// Encoder serializes datasets into base64-encoded Arrow IPC streams.
type Encoder struct {
	alloc       memory.Allocator
	compression Compression
}

// NewEncoder creates an Encoder with the given options.
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{alloc: memory.NewGoAllocator()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode serializes the dataset and returns the standard base64 encoding
// (RFC 4648, padded) of the IPC stream bytes.
func (e *Encoder) Encode(ds *dataset.Dataset) (string, error) {
	raw, err := e.EncodeBytes(ds)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// EncodeBytes serializes the dataset to raw Arrow IPC stream bytes.
func (e *Encoder) EncodeBytes(ds *dataset.Dataset) ([]byte, error) {
	if ds == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "dataset must not be nil")
	}
	rec, err := ToRecord(e.alloc, ds)
	if err != nil {
		return nil, err
	}
	defer rec.Release()
	return e.EncodeRecord(rec)
}

// EncodeRecord serializes an Arrow record the caller already holds.
func (e *Encoder) EncodeRecord(rec arrow.Record) ([]byte, error) {
	opts := []ipc.Option{
		ipc.WithSchema(rec.Schema()),
		ipc.WithAllocator(e.alloc),
	}
	switch e.compression {
	case CompressionZstd:
		opts = append(opts, ipc.WithZstd())
	case CompressionLZ4:
		opts = append(opts, ipc.WithLZ4())
	case CompressionNone:
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown compression codec %q", e.compression)
	}

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, opts...)
	if err := w.Write(rec); err != nil {
		_ = w.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeEncoding, "failed to write record batch")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeEncoding, "failed to finalize IPC stream")
	}
	return buf.Bytes(), nil
}

// Decoder parses base64-encoded Arrow IPC streams back into datasets.
type Decoder struct {
	alloc memory.Allocator
}

// NewDecoder creates a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{alloc: memory.NewGoAllocator()}
}

// Decode reverses Encode: base64 decode, then parse the IPC stream into a
// Dataset. All record batches in the stream are concatenated.
func (d *Decoder) Decode(encoded string) (*dataset.Dataset, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode base64 data")
	}
	return d.DecodeBytes(raw)
}

// DecodeBytes parses raw Arrow IPC stream bytes into a Dataset.
func (d *Decoder) DecodeBytes(raw []byte) (*dataset.Dataset, error) {
	reader, err := ipc.NewReader(bytes.NewReader(raw), ipc.WithAllocator(d.alloc))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to open IPC stream")
	}
	defer reader.Release()

	var records []arrow.Record
	defer func() {
		for _, rec := range records {
			rec.Release()
		}
	}()

	for reader.Next() {
		rec := reader.Record()
		rec.Retain()
		records = append(records, rec)
	}
	if err := reader.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read record batch")
	}

	return FromRecords(reader.Schema(), records)
}
