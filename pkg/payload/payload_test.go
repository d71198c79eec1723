package payload

import (
	"encoding/base64"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datapassage/icefeed/pkg/dataset"
	"github.com/datapassage/icefeed/pkg/errors"
)

var stdBase64 = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)

func fixtures() map[string]*dataset.Dataset {
	return map[string]*dataset.Dataset{
		"users":    dataset.SampleUsers(),
		"simple":   dataset.SampleSimple(),
		"mixed":    dataset.SampleMixed(),
		"empty":    dataset.SampleEmpty(),
		"nullable": dataset.SampleNullable(),
		"large":    dataset.SampleLarge(2000),
	}
}

func TestRoundTrip(t *testing.T) {
	enc := NewEncoder()
	dec := NewDecoder()

	for name, ds := range fixtures() {
		t.Run(name, func(t *testing.T) {
			encoded, err := enc.Encode(ds)
			require.NoError(t, err)
			assert.Regexp(t, stdBase64, encoded)

			got, err := dec.Decode(encoded)
			require.NoError(t, err)
			assert.True(t, ds.Equal(got), "decoded dataset differs from input")
		})
	}
}

func TestRoundTripCompressed(t *testing.T) {
	dec := NewDecoder()

	for _, comp := range []Compression{CompressionZstd, CompressionLZ4} {
		t.Run(string(comp), func(t *testing.T) {
			enc := NewEncoder(WithCompression(comp))
			for name, ds := range fixtures() {
				encoded, err := enc.Encode(ds)
				require.NoError(t, err, "fixture %s", name)

				got, err := dec.Decode(encoded)
				require.NoError(t, err, "fixture %s", name)
				assert.True(t, ds.Equal(got), "fixture %s differs after %s round trip", name, comp)
			}
		})
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	enc := NewEncoder()

	for name, ds := range fixtures() {
		t.Run(name, func(t *testing.T) {
			first, err := enc.Encode(ds)
			require.NoError(t, err)
			second, err := enc.Encode(ds)
			require.NoError(t, err)
			assert.Equal(t, first, second, "encoding the same dataset twice must be byte-identical")
		})
	}
}

func TestEncodeEmptyDatasetCarriesSchema(t *testing.T) {
	enc := NewEncoder()
	dec := NewDecoder()

	encoded, err := enc.Encode(dataset.SampleEmpty())
	require.NoError(t, err)
	require.NotEmpty(t, encoded, "zero rows still produce a schema-bearing stream")

	got, err := dec.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, 0, got.NumRows())
	assert.Equal(t, []string{"id", "name"}, got.ColumnNames())
}

func TestEncodeNilDataset(t *testing.T) {
	_, err := NewEncoder().Encode(nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	dec := NewDecoder()

	t.Run("not base64", func(t *testing.T) {
		_, err := dec.Decode("this is not base64!!!")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeData))
	})

	t.Run("base64 but not IPC", func(t *testing.T) {
		_, err := dec.Decode(base64.StdEncoding.EncodeToString([]byte("hello world")))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeData))
	})

	t.Run("empty string", func(t *testing.T) {
		_, err := dec.Decode("")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeData))
	})

	t.Run("truncated stream", func(t *testing.T) {
		encoded, err := NewEncoder().Encode(dataset.SampleUsers())
		require.NoError(t, err)
		raw, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)

		_, err = dec.DecodeBytes(raw[:len(raw)/2])
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeData))
	})
}

func TestNullsSurviveRoundTrip(t *testing.T) {
	ds, err := dataset.NewBuilder().
		NullableInt64("id", []int64{1, 0, 3, 0}, []bool{true, false, true, false}).
		NullableString("name", []string{"a", "", "", "d"}, []bool{true, false, false, true}).
		NullableFloat64("score", []float64{1.5, 2.5, 0, 4.5}, []bool{true, true, false, true}).
		Build()
	require.NoError(t, err)

	encoded, err := NewEncoder().Encode(ds)
	require.NoError(t, err)
	got, err := NewDecoder().Decode(encoded)
	require.NoError(t, err)

	id := got.Column("id")
	require.NotNil(t, id)
	assert.True(t, id.IsNull(1))
	assert.True(t, id.IsNull(3))
	assert.Equal(t, int64(3), id.Value(2))

	score := got.Column("score")
	require.NotNil(t, score)
	assert.True(t, score.IsNull(2))
	assert.Equal(t, 4.5, score.Value(3))

	assert.True(t, ds.Equal(got))
}
