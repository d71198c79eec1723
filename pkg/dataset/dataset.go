// Package dataset provides the in-memory columnar table model used by icefeed.
// A Dataset is an ordered set of named, equal-length, typed columns. It is the
// caller-supplied input to the payload encoder and the output of the decoder.
//
// Datasets are immutable once built. Column order is insertion order and column
// names are unique; construction fails otherwise.
package dataset

import (
	"github.com/datapassage/icefeed/pkg/errors"
)

// Type identifies the primitive type of a column.
type Type string

const (
	// TypeInt64 is a 64-bit signed integer column
	TypeInt64 Type = "int64"
	// TypeFloat64 is a 64-bit float column
	TypeFloat64 Type = "float64"
	// TypeString is a UTF-8 string column
	TypeString Type = "string"
	// TypeBool is a boolean column
	TypeBool Type = "bool"
	// TypeDate32 is a date column stored as days since the Unix epoch
	TypeDate32 Type = "date32"
	// TypeTimestamp is a timestamp column stored as microseconds since the Unix epoch
	TypeTimestamp Type = "timestamp_us"
)

// Column is a fixed-length sequence of scalar values of a single type.
// The zero value is not usable; construct columns through the typed
// constructors or the Builder.
type Column struct {
	name string
	typ  Type

	int64s   []int64
	float64s []float64
	strings  []string
	bools    []bool
	dates    []int32
	times    []int64

	// valid marks non-null rows; nil means no nulls
	valid []bool
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Type returns the column type.
func (c *Column) Type() Type { return c.typ }

// Len returns the number of rows, null or not.
func (c *Column) Len() int {
	switch c.typ {
	case TypeInt64:
		return len(c.int64s)
	case TypeFloat64:
		return len(c.float64s)
	case TypeString:
		return len(c.strings)
	case TypeBool:
		return len(c.bools)
	case TypeDate32:
		return len(c.dates)
	case TypeTimestamp:
		return len(c.times)
	}
	return 0
}

// Nullable reports whether the column carries a validity mask.
func (c *Column) Nullable() bool { return c.valid != nil }

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool {
	return c.valid != nil && !c.valid[i]
}

// Valid returns the validity mask, or nil if the column has no nulls.
// The returned slice must not be modified.
func (c *Column) Valid() []bool { return c.valid }

// Int64s returns the backing values of an int64 column.
// The returned slice must not be modified.
func (c *Column) Int64s() []int64 { return c.int64s }

// Float64s returns the backing values of a float64 column.
func (c *Column) Float64s() []float64 { return c.float64s }

// Strings returns the backing values of a string column.
func (c *Column) Strings() []string { return c.strings }

// Bools returns the backing values of a bool column.
func (c *Column) Bools() []bool { return c.bools }

// Dates returns the backing values of a date32 column as epoch days.
func (c *Column) Dates() []int32 { return c.dates }

// Timestamps returns the backing values of a timestamp column as epoch micros.
func (c *Column) Timestamps() []int64 { return c.times }

// Value returns the value at row i as an interface, or nil for null rows.
func (c *Column) Value(i int) interface{} {
	if c.IsNull(i) {
		return nil
	}
	switch c.typ {
	case TypeInt64:
		return c.int64s[i]
	case TypeFloat64:
		return c.float64s[i]
	case TypeString:
		return c.strings[i]
	case TypeBool:
		return c.bools[i]
	case TypeDate32:
		return c.dates[i]
	case TypeTimestamp:
		return c.times[i]
	}
	return nil
}

// Int64Column creates an int64 column. A nil valid mask means no nulls.
func Int64Column(name string, values []int64, valid []bool) *Column {
	return &Column{name: name, typ: TypeInt64, int64s: values, valid: valid}
}

// Float64Column creates a float64 column.
func Float64Column(name string, values []float64, valid []bool) *Column {
	return &Column{name: name, typ: TypeFloat64, float64s: values, valid: valid}
}

// StringColumn creates a string column.
func StringColumn(name string, values []string, valid []bool) *Column {
	return &Column{name: name, typ: TypeString, strings: values, valid: valid}
}

// BoolColumn creates a bool column.
func BoolColumn(name string, values []bool, valid []bool) *Column {
	return &Column{name: name, typ: TypeBool, bools: values, valid: valid}
}

// Date32Column creates a date column from epoch days.
func Date32Column(name string, values []int32, valid []bool) *Column {
	return &Column{name: name, typ: TypeDate32, dates: values, valid: valid}
}

// TimestampColumn creates a timestamp column from epoch microseconds.
func TimestampColumn(name string, values []int64, valid []bool) *Column {
	return &Column{name: name, typ: TypeTimestamp, times: values, valid: valid}
}

// Dataset is an ordered, immutable collection of equal-length columns.
type Dataset struct {
	cols   []*Column
	byName map[string]int
	rows   int
}

// New assembles a Dataset from columns, rejecting duplicate names, unequal
// lengths and validity masks that do not match the column length.
func New(cols ...*Column) (*Dataset, error) {
	ds := &Dataset{
		cols:   cols,
		byName: make(map[string]int, len(cols)),
	}

	for i, col := range cols {
		if col.name == "" {
			return nil, errors.New(errors.ErrorTypeValidation, "column name must not be empty")
		}
		if _, exists := ds.byName[col.name]; exists {
			return nil, errors.Newf(errors.ErrorTypeValidation, "duplicate column name %q", col.name)
		}
		ds.byName[col.name] = i

		if i == 0 {
			ds.rows = col.Len()
		} else if col.Len() != ds.rows {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"column %q has %d rows, expected %d", col.name, col.Len(), ds.rows)
		}
		if col.valid != nil && len(col.valid) != col.Len() {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"column %q validity mask has %d entries, expected %d", col.name, len(col.valid), col.Len())
		}
	}

	return ds, nil
}

// NumRows returns the shared row count.
func (d *Dataset) NumRows() int { return d.rows }

// NumCols returns the number of columns.
func (d *Dataset) NumCols() int { return len(d.cols) }

// Columns returns the columns in insertion order.
// The returned slice must not be modified.
func (d *Dataset) Columns() []*Column { return d.cols }

// Column returns the column with the given name, or nil if absent.
func (d *Dataset) Column(name string) *Column {
	if i, ok := d.byName[name]; ok {
		return d.cols[i]
	}
	return nil
}

// ColumnNames returns the column names in insertion order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.cols))
	for i, col := range d.cols {
		names[i] = col.name
	}
	return names
}

// Equal reports whether two datasets have identical column names, order,
// types, values and null positions.
func (d *Dataset) Equal(other *Dataset) bool {
	if other == nil || d.rows != other.rows || len(d.cols) != len(other.cols) {
		return false
	}
	for i, col := range d.cols {
		o := other.cols[i]
		if col.name != o.name || col.typ != o.typ {
			return false
		}
		for row := 0; row < d.rows; row++ {
			if col.IsNull(row) != o.IsNull(row) {
				return false
			}
			if !col.IsNull(row) && col.Value(row) != o.Value(row) {
				return false
			}
		}
	}
	return true
}
