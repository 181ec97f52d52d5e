package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataMarshal(t *testing.T) {
	t.Run("Marshals keys and values as JSON", func(t *testing.T) {
		m := Metadata{
			"filename":   "fire-strategy.pdf",
			"revision":   3,
			"superseded": false,
		}

		b, err := m.Marshal()

		require.NoError(t, err)
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(b, &decoded))
		assert.Equal(t, "fire-strategy.pdf", decoded["filename"])
		assert.Equal(t, float64(3), decoded["revision"], "JSON numbers decode as float64")
		assert.Equal(t, false, decoded["superseded"])
	})

	t.Run("Empty metadata marshals to an empty object", func(t *testing.T) {
		b, err := Metadata{}.Marshal()

		require.NoError(t, err)
		assert.Equal(t, []byte("{}"), b)
	})

	t.Run("Nil metadata marshals to null", func(t *testing.T) {
		var m Metadata

		b, err := m.Marshal()

		require.NoError(t, err)
		assert.Equal(t, []byte("null"), b)
	})
}

func TestMetadataUnmarshal(t *testing.T) {
	t.Run("Unmarshals JSON bytes", func(t *testing.T) {
		var m Metadata

		err := m.Unmarshal([]byte(`{"filename":"calc-pack.pdf","page_count":42,"checked":true}`))

		require.NoError(t, err)
		assert.Equal(t, "calc-pack.pdf", m["filename"])
		assert.Equal(t, float64(42), m["page_count"])
		assert.Equal(t, true, m["checked"])
	})

	t.Run("Nested values stay addressable", func(t *testing.T) {
		var m Metadata

		err := m.Unmarshal([]byte(`{"approval":{"status":"granted"},"disciplines":["fire_safety","structural"]}`))

		require.NoError(t, err)
		approval, ok := m["approval"].(map[string]interface{})
		require.True(t, ok, "Expected the nested object to decode as a map")
		assert.Equal(t, "granted", approval["status"])
	})

	t.Run("Nil becomes an empty map", func(t *testing.T) {
		var m Metadata

		err := m.Unmarshal(nil)

		require.NoError(t, err)
		assert.NotNil(t, m)
		assert.Empty(t, m)
	})

	t.Run("Metadata values pass through unchanged", func(t *testing.T) {
		var m Metadata

		err := m.Unmarshal(Metadata{"filename": "door-schedule.pdf"})

		require.NoError(t, err)
		assert.Equal(t, "door-schedule.pdf", m["filename"])
	})

	t.Run("Invalid JSON returns an error", func(t *testing.T) {
		var m Metadata

		err := m.Unmarshal([]byte(`{not json}`))

		require.Error(t, err)
	})

	t.Run("Unsupported types return an assertion error", func(t *testing.T) {
		var m Metadata

		err := m.Unmarshal(12345)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "type assertion")
	})
}

func TestMetadataDriverRoundTrip(t *testing.T) {
	t.Run("Value produces JSON bytes for the driver", func(t *testing.T) {
		m := Metadata{"filename": "fire-strategy.pdf"}

		value, err := m.Value()

		require.NoError(t, err)
		b, ok := value.([]byte)
		require.True(t, ok, "Expected the driver value to be JSON bytes")
		assert.Contains(t, string(b), "fire-strategy.pdf")
	})

	t.Run("Scan restores what Value produced", func(t *testing.T) {
		original := Metadata{"filename": "envelope-spec.pdf", "revision": 2}

		value, err := original.Value()
		require.NoError(t, err)

		var restored Metadata
		require.NoError(t, restored.Scan(value))
		assert.Equal(t, "envelope-spec.pdf", restored["filename"])
		assert.Equal(t, float64(2), restored["revision"], "Numbers come back as float64 after the JSON round trip")
	})

	t.Run("Scan of a NULL column yields an empty map", func(t *testing.T) {
		var m Metadata

		require.NoError(t, m.Scan(nil))
		assert.NotNil(t, m)
		assert.Empty(t, m)
	})
}
