package dataset

import "fmt"

// SampleUsers returns the canonical 5-row smoke-test dataset with columns
// id, name, age and city.
func SampleUsers() *Dataset {
	ds, err := NewBuilder().
		Int64("id", 1, 2, 3, 4, 5).
		String("name", "Alice", "Bob", "Charlie", "Diana", "Eve").
		Int64("age", 25, 30, 35, 28, 32).
		String("city", "New York", "London", "Tokyo", "Paris", "Sydney").
		Build()
	if err != nil {
		panic(fmt.Sprintf("dataset: invalid fixture: %v", err))
	}
	return ds
}

// SampleSimple returns a small dataset with id, name and active columns.
func SampleSimple() *Dataset {
	ds, err := NewBuilder().
		Int64("id", 1, 2, 3, 4, 5).
		String("name", "Alice", "Bob", "Charlie", "David", "Eve").
		Bool("active", true, false, true, true, false).
		Build()
	if err != nil {
		panic(fmt.Sprintf("dataset: invalid fixture: %v", err))
	}
	return ds
}

// SampleMixed returns a dataset exercising every supported column type.
func SampleMixed() *Dataset {
	ds, err := NewBuilder().
		Int64("id", 1, 2, 3).
		String("name", "Alice", "Bob", "Charlie").
		Bool("active", true, false, true).
		Float64("score", 95.5, 87.2, 91.8).
		Date32("date", 19000, 19001, 19002).
		Timestamp("created_at", 1700000000000000, 1700000001000000, 1700000002000000).
		Build()
	if err != nil {
		panic(fmt.Sprintf("dataset: invalid fixture: %v", err))
	}
	return ds
}

// SampleEmpty returns a zero-row dataset with id and name columns.
func SampleEmpty() *Dataset {
	ds, err := NewBuilder().
		Int64("id").
		String("name").
		Build()
	if err != nil {
		panic(fmt.Sprintf("dataset: invalid fixture: %v", err))
	}
	return ds
}

// SampleNullable returns a dataset with null values in both columns.
func SampleNullable() *Dataset {
	ds, err := NewBuilder().
		NullableInt64("id", []int64{1, 0, 3}, []bool{true, false, true}).
		NullableString("name", []string{"Alice", "", "Charlie"}, []bool{true, false, true}).
		Build()
	if err != nil {
		panic(fmt.Sprintf("dataset: invalid fixture: %v", err))
	}
	return ds
}

// SampleLarge returns an n-row dataset for throughput checks.
func SampleLarge(n int) *Dataset {
	ids := make([]int64, n)
	values := make([]string, n)
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		ids[i] = int64(i + 1)
		values[i] = "test_value"
		scores[i] = float64(i+1) * 0.1
	}
	ds, err := NewBuilder().
		Int64("id", ids...).
		String("value", values...).
		Float64("score", scores...).
		Build()
	if err != nil {
		panic(fmt.Sprintf("dataset: invalid fixture: %v", err))
	}
	return ds
}
