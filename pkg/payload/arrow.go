package payload

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/datapassage/icefeed/pkg/dataset"
	"github.com/datapassage/icefeed/pkg/errors"
)

// ToArrowSchema converts a dataset's column layout to an Arrow schema.
func ToArrowSchema(ds *dataset.Dataset) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, ds.NumCols())
	for _, col := range ds.Columns() {
		dt, err := arrowType(col.Type())
		if err != nil {
			return nil, err
		}
		fields = append(fields, arrow.Field{
			Name:     col.Name(),
			Type:     dt,
			Nullable: col.Nullable(),
		})
	}
	return arrow.NewSchema(fields, nil), nil
}

// ToRecord converts a dataset into a single Arrow record batch.
// The caller owns the returned record and must Release it.
func ToRecord(mem memory.Allocator, ds *dataset.Dataset) (arrow.Record, error) {
	schema, err := ToArrowSchema(ds)
	if err != nil {
		return nil, err
	}

	rb := array.NewRecordBuilder(mem, schema)
	defer rb.Release()

	for i, col := range ds.Columns() {
		if err := appendColumn(rb.Field(i), col); err != nil {
			return nil, err
		}
	}

	return rb.NewRecord(), nil
}

// FromRecords converts one or more Arrow record batches sharing a schema back
// into a Dataset. An empty batch list yields a zero-row dataset with the
// schema's columns.
func FromRecords(schema *arrow.Schema, records []arrow.Record) (*dataset.Dataset, error) {
	if schema == nil {
		return nil, errors.New(errors.ErrorTypeData, "IPC stream carries no schema")
	}

	cols := make([]*dataset.Column, 0, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		field := schema.Field(i)
		col, err := buildColumn(field, records, i)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}

	ds, err := dataset.New(cols...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "decoded batches are inconsistent")
	}
	return ds, nil
}

func arrowType(t dataset.Type) (arrow.DataType, error) {
	switch t {
	case dataset.TypeInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case dataset.TypeFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case dataset.TypeString:
		return arrow.BinaryTypes.String, nil
	case dataset.TypeBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case dataset.TypeDate32:
		return arrow.FixedWidthTypes.Date32, nil
	case dataset.TypeTimestamp:
		return arrow.FixedWidthTypes.Timestamp_us, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeEncoding, "unsupported column type %q", t)
	}
}

func datasetType(dt arrow.DataType) (dataset.Type, error) {
	switch t := dt.(type) {
	case *arrow.Int64Type:
		return dataset.TypeInt64, nil
	case *arrow.Float64Type:
		return dataset.TypeFloat64, nil
	case *arrow.StringType:
		return dataset.TypeString, nil
	case *arrow.BooleanType:
		return dataset.TypeBool, nil
	case *arrow.Date32Type:
		return dataset.TypeDate32, nil
	case *arrow.TimestampType:
		if t.Unit != arrow.Microsecond {
			return "", errors.Newf(errors.ErrorTypeData, "unsupported timestamp unit %q", t.Unit)
		}
		return dataset.TypeTimestamp, nil
	default:
		return "", errors.Newf(errors.ErrorTypeData, "unsupported Arrow type %q", dt)
	}
}

func appendColumn(builder array.Builder, col *dataset.Column) error {
	switch b := builder.(type) {
	case *array.Int64Builder:
		b.AppendValues(col.Int64s(), col.Valid())
	case *array.Float64Builder:
		b.AppendValues(col.Float64s(), col.Valid())
	case *array.StringBuilder:
		b.AppendValues(col.Strings(), col.Valid())
	case *array.BooleanBuilder:
		b.AppendValues(col.Bools(), col.Valid())
	case *array.Date32Builder:
		dates := make([]arrow.Date32, len(col.Dates()))
		for i, d := range col.Dates() {
			dates[i] = arrow.Date32(d)
		}
		b.AppendValues(dates, col.Valid())
	case *array.TimestampBuilder:
		times := make([]arrow.Timestamp, len(col.Timestamps()))
		for i, ts := range col.Timestamps() {
			times[i] = arrow.Timestamp(ts)
		}
		b.AppendValues(times, col.Valid())
	default:
		return errors.Newf(errors.ErrorTypeEncoding, "unsupported builder for column %q", col.Name())
	}
	return nil
}

func buildColumn(field arrow.Field, records []arrow.Record, colIdx int) (*dataset.Column, error) {
	typ, err := datasetType(field.Type)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "column "+field.Name)
	}

	total := 0
	for _, rec := range records {
		total += int(rec.NumRows())
	}

	var valid []bool
	hasNulls := false
	for _, rec := range records {
		if rec.Column(colIdx).NullN() > 0 {
			hasNulls = true
			break
		}
	}
	if hasNulls || field.Nullable {
		valid = make([]bool, 0, total)
	}

	appendValid := func(arr arrow.Array, n int) {
		if valid == nil {
			return
		}
		for i := 0; i < n; i++ {
			valid = append(valid, !arr.IsNull(i))
		}
	}

	switch typ {
	case dataset.TypeInt64:
		values := make([]int64, 0, total)
		for _, rec := range records {
			arr := rec.Column(colIdx).(*array.Int64)
			for i := 0; i < arr.Len(); i++ {
				values = append(values, arr.Value(i))
			}
			appendValid(arr, arr.Len())
		}
		return dataset.Int64Column(field.Name, values, valid), nil

	case dataset.TypeFloat64:
		values := make([]float64, 0, total)
		for _, rec := range records {
			arr := rec.Column(colIdx).(*array.Float64)
			for i := 0; i < arr.Len(); i++ {
				values = append(values, arr.Value(i))
			}
			appendValid(arr, arr.Len())
		}
		return dataset.Float64Column(field.Name, values, valid), nil

	case dataset.TypeString:
		values := make([]string, 0, total)
		for _, rec := range records {
			arr := rec.Column(colIdx).(*array.String)
			for i := 0; i < arr.Len(); i++ {
				if arr.IsNull(i) {
					values = append(values, "")
				} else {
					values = append(values, arr.Value(i))
				}
			}
			appendValid(arr, arr.Len())
		}
		return dataset.StringColumn(field.Name, values, valid), nil

	case dataset.TypeBool:
		values := make([]bool, 0, total)
		for _, rec := range records {
			arr := rec.Column(colIdx).(*array.Boolean)
			for i := 0; i < arr.Len(); i++ {
				values = append(values, !arr.IsNull(i) && arr.Value(i))
			}
			appendValid(arr, arr.Len())
		}
		return dataset.BoolColumn(field.Name, values, valid), nil

	case dataset.TypeDate32:
		values := make([]int32, 0, total)
		for _, rec := range records {
			arr := rec.Column(colIdx).(*array.Date32)
			for i := 0; i < arr.Len(); i++ {
				values = append(values, int32(arr.Value(i)))
			}
			appendValid(arr, arr.Len())
		}
		return dataset.Date32Column(field.Name, values, valid), nil

	case dataset.TypeTimestamp:
		values := make([]int64, 0, total)
		for _, rec := range records {
			arr := rec.Column(colIdx).(*array.Timestamp)
			for i := 0; i < arr.Len(); i++ {
				values = append(values, int64(arr.Value(i)))
			}
			appendValid(arr, arr.Len())
		}
		return dataset.TimestampColumn(field.Name, values, valid), nil
	}

	return nil, errors.Newf(errors.ErrorTypeData, "unsupported column type %q", typ)
}
