package dataset

// Builder assembles a Dataset column by column with a fluent API.
// Errors are deferred to Build so construction chains stay readable.
//
//	ds, err := dataset.NewBuilder().
//	    Int64("id", 1, 2, 3).
//	    String("name", "a", "b", "c").
//	    Build()
type Builder struct {
	cols []*Column
}

// NewBuilder returns an empty dataset builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Int64 appends an int64 column.
func (b *Builder) Int64(name string, values ...int64) *Builder {
	b.cols = append(b.cols, Int64Column(name, values, nil))
	return b
}

// NullableInt64 appends an int64 column with a validity mask.
func (b *Builder) NullableInt64(name string, values []int64, valid []bool) *Builder {
	b.cols = append(b.cols, Int64Column(name, values, valid))
	return b
}

// Float64 appends a float64 column.
func (b *Builder) Float64(name string, values ...float64) *Builder {
	b.cols = append(b.cols, Float64Column(name, values, nil))
	return b
}

// NullableFloat64 appends a float64 column with a validity mask.
func (b *Builder) NullableFloat64(name string, values []float64, valid []bool) *Builder {
	b.cols = append(b.cols, Float64Column(name, values, valid))
	return b
}

// String appends a string column.
func (b *Builder) String(name string, values ...string) *Builder {
	b.cols = append(b.cols, StringColumn(name, values, nil))
	return b
}

// NullableString appends a string column with a validity mask.
func (b *Builder) NullableString(name string, values []string, valid []bool) *Builder {
	b.cols = append(b.cols, StringColumn(name, values, valid))
	return b
}

// Bool appends a bool column.
func (b *Builder) Bool(name string, values ...bool) *Builder {
	b.cols = append(b.cols, BoolColumn(name, values, nil))
	return b
}

// Date32 appends a date column from epoch days.
func (b *Builder) Date32(name string, values ...int32) *Builder {
	b.cols = append(b.cols, Date32Column(name, values, nil))
	return b
}

// Timestamp appends a timestamp column from epoch microseconds.
func (b *Builder) Timestamp(name string, values ...int64) *Builder {
	b.cols = append(b.cols, TimestampColumn(name, values, nil))
	return b
}

// Build validates the collected columns and returns the Dataset.
func (b *Builder) Build() (*Dataset, error) {
	return New(b.cols...)
}
