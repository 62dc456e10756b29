package domain

import (
	"encoding/json/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Get(t *testing.T) {
	r := Record{
		FieldName:    "  Sporthal Zuid ",
		FieldBrand:   "nan",
		FieldLeisure: "NaN",
	}

	assert.Equal(t, "Sporthal Zuid", r.Get(FieldName))
	assert.Empty(t, r.Get(FieldBrand))
	assert.Empty(t, r.Get(FieldLeisure))
	assert.Empty(t, r.Get(FieldCity))
}

func TestRecord_ID(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"explicit id", Record{FieldID: "node/42", FieldLat: "52.1"}, "node/42"},
		{"coordinates", Record{FieldLat: "52.09", FieldLon: "5.12"}, "52.09,5.12"},
		{"nothing", Record{FieldName: "x"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.ID())
		})
	}
}

func TestRecord_Coordinates(t *testing.T) {
	lat, lon, ok := Record{FieldLat: "52.0907", FieldLon: "5.1214"}.Coordinates()
	require.True(t, ok)
	assert.InDelta(t, 52.0907, lat, 1e-9)
	assert.InDelta(t, 5.1214, lon, 1e-9)

	_, _, ok = Record{FieldLat: "52.0907"}.Coordinates()
	assert.False(t, ok)

	_, _, ok = Record{FieldLat: "nan", FieldLon: "5.1"}.Coordinates()
	assert.False(t, ok)

	for _, v := range []string{"inf", "-Inf", "Infinity", "NaN", "1e400"} {
		_, _, ok = Record{FieldLat: v, FieldLon: "5.1"}.Coordinates()
		assert.False(t, ok, "lat %q", v)
		_, _, ok = Record{FieldLat: "52.1", FieldLon: v}.Coordinates()
		assert.False(t, ok, "lon %q", v)
	}
}

func TestRecord_UnmarshalJSON(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"name":"Gymzaal","lat":52.5,"lon":5,"indoor":true,"brand":null}`), &r)
	require.NoError(t, err)

	assert.Equal(t, "Gymzaal", r[FieldName])
	assert.Equal(t, "52.5", r[FieldLat])
	assert.Equal(t, "5", r[FieldLon])
	assert.Equal(t, "true", r["indoor"])
	assert.Equal(t, "", r[FieldBrand])

	err = json.Unmarshal([]byte(`{"name":{"nested":true}}`), &r)
	assert.Error(t, err)
}

func TestFromMap(t *testing.T) {
	rec, err := FromMap(map[string]any{
		"name": "Sporthal Zuid",
		"lat":  52.07,
		"fee":  false,
		"note": nil,
	})
	require.NoError(t, err)
	assert.Equal(t, Record{"name": "Sporthal Zuid", "lat": "52.07", "fee": "false", "note": ""}, rec)

	_, err = FromMap(map[string]any{"tags": []any{"a"}})
	assert.Error(t, err)
}
