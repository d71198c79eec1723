package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/datapassage/icefeed/pkg/errors"
)

// ReadCSV parses CSV from r into a Dataset. The first record is the header
// and supplies the column names. Column types are inferred from the values:
// a column is int64 if every non-empty cell parses as an integer, float64 if
// every non-empty cell parses as a number, bool if every non-empty cell is
// true/false, and string otherwise. Empty cells in typed columns become
// nulls; in string columns they stay empty strings.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrorTypeData, "CSV input is empty")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read CSV header")
	}

	raw := make([][]string, len(header))
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read CSV record")
		}
		for i, cell := range record {
			raw[i] = append(raw[i], cell)
		}
	}

	cols := make([]*Column, len(header))
	for i, name := range header {
		cols[i] = inferColumn(strings.TrimSpace(name), raw[i])
	}
	return New(cols...)
}

// ReadCSVFile reads a CSV file into a Dataset.
func ReadCSVFile(path string) (*Dataset, error) {
	f, err := os.Open(path) //nolint:gosec // G304: file path is controlled by caller
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to open CSV file")
	}
	defer f.Close()
	return ReadCSV(f)
}

func inferColumn(name string, values []string) *Column {
	typ := inferType(values)

	var valid []bool
	hasNulls := false
	if typ != TypeString {
		valid = make([]bool, len(values))
		for i, v := range values {
			valid[i] = strings.TrimSpace(v) != ""
			if !valid[i] {
				hasNulls = true
			}
		}
		if !hasNulls {
			valid = nil
		}
	}

	switch typ {
	case TypeInt64:
		out := make([]int64, len(values))
		for i, v := range values {
			out[i], _ = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		}
		return Int64Column(name, out, valid)

	case TypeFloat64:
		out := make([]float64, len(values))
		for i, v := range values {
			out[i], _ = strconv.ParseFloat(strings.TrimSpace(v), 64)
		}
		return Float64Column(name, out, valid)

	case TypeBool:
		out := make([]bool, len(values))
		for i, v := range values {
			out[i] = strings.EqualFold(strings.TrimSpace(v), "true")
		}
		return BoolColumn(name, out, valid)

	default:
		return StringColumn(name, values, nil)
	}
}

func inferType(values []string) Type {
	isInt, isFloat, isBool := true, true, true
	nonEmpty := 0

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		nonEmpty++

		if isInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			switch strings.ToLower(v) {
			case "true", "false":
			default:
				isBool = false
			}
		}
	}

	// an all-empty column has no evidence of a type
	if nonEmpty == 0 {
		return TypeString
	}

	switch {
	case isInt:
		return TypeInt64
	case isFloat:
		return TypeFloat64
	case isBool:
		return TypeBool
	default:
		return TypeString
	}
}
