package ingest

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func item(t *testing.T, raw string) Item {
	t.Helper()
	var it Item
	require.NoError(t, json.Unmarshal([]byte(raw), &it))
	return it
}

func TestFirstPresent_OrderedFallback(t *testing.T) {
	it := item(t, `{"productId":"SKU-1","product_id":"SKU-2"}`)

	raw, ok := FirstPresent(it, "productId", "product_id")
	require.True(t, ok)
	require.Equal(t, `"SKU-1"`, string(raw))

	raw, ok = FirstPresent(it, "missing", "product_id")
	require.True(t, ok)
	require.Equal(t, `"SKU-2"`, string(raw))

	_, ok = FirstPresent(it, "nope", "also_nope")
	require.False(t, ok)
}

func TestFirstPresent_SkipsJSONNull(t *testing.T) {
	it := item(t, `{"productId":null,"product_id":"SKU-2"}`)

	raw, ok := FirstPresent(it, "productId", "product_id")
	require.True(t, ok)
	require.Equal(t, `"SKU-2"`, string(raw))
}

func TestStringField_NumericValueBecomesText(t *testing.T) {
	it := item(t, `{"id":12345}`)

	s, ok := StringField(it, "id")
	require.True(t, ok)
	require.Equal(t, "12345", s)
}

func TestPayloadText_StructuredDataKeepsExactBytes(t *testing.T) {
	it := item(t, `{"data":{"lat":46.77,"lon":23.59}}`)

	s, ok := PayloadText(it)
	require.True(t, ok)
	require.Equal(t, `{"lat":46.77,"lon":23.59}`, s)
}

func TestPayloadText_StringDataIsUnquoted(t *testing.T) {
	it := item(t, `{"data":"{\"level\":120}"}`)

	s, ok := PayloadText(it)
	require.True(t, ok)
	require.Equal(t, `{"level":120}`, s)
}

func TestPayloadText_FallsBackToDataJSON(t *testing.T) {
	it := item(t, `{"data_json":"{\"level\":80}"}`)

	s, ok := PayloadText(it)
	require.True(t, ok)
	require.Equal(t, `{"level":80}`, s)
}

func TestNormalize_FullItem(t *testing.T) {
	it := item(t, `{
		"id":"ev-1",
		"ts":"2026-03-01T12:00:00Z",
		"productId":"SKU-1001",
		"location_id":"WH-RO-B",
		"sensor":"env",
		"data":{"temp_c":10.5},
		"_edge":{"topic":"sc/telemetry/env","received_ts":"2026-03-01T12:00:01Z","alert":"TEMP_OVER_8","latency_ms_sensor_to_edge":1000}
	}`)

	ingestTS := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	row, err := Normalize(it, ingestTS)
	require.NoError(t, err)

	require.Equal(t, "ev-1", row.ID)
	require.Equal(t, "2026-03-01T12:00:00Z", row.TS)
	require.Equal(t, ingestTS, row.IngestTS)
	require.Equal(t, "SKU-1001", *row.ProductID)
	require.Equal(t, "WH-RO-B", *row.LocationID)
	require.Equal(t, "env", *row.Sensor)
	require.Equal(t, `{"temp_c":10.5}`, *row.DataJSON)
	require.Equal(t, "sc/telemetry/env", *row.Topic)
	require.Equal(t, "TEMP_OVER_8", *row.EdgeAlert)
	require.Equal(t, int64(1000), *row.EdgeLatencyMs)
}

func TestNormalize_MinimalItemLeavesOptionalsNil(t *testing.T) {
	it := item(t, `{"id":"bare"}`)

	row, err := Normalize(it, time.Now())
	require.NoError(t, err)
	require.Equal(t, "bare", row.ID)
	require.Nil(t, row.ProductID)
	require.Nil(t, row.LocationID)
	require.Nil(t, row.Sensor)
	require.Nil(t, row.DataJSON)
	require.Nil(t, row.Topic)
	require.Nil(t, row.EdgeAlert)
	require.Nil(t, row.EdgeLatencyMs)
}

func TestNormalize_MissingIDRejected(t *testing.T) {
	_, err := Normalize(item(t, `{"sensor":"gps"}`), time.Now())
	require.ErrorIs(t, err, ErrMissingID)

	_, err = Normalize(item(t, `{"id":null}`), time.Now())
	require.ErrorIs(t, err, ErrMissingID)
}

func TestNormalize_IngestTSNormalizedToUTC(t *testing.T) {
	loc := time.FixedZone("EET", 2*3600)
	row, err := Normalize(item(t, `{"id":"tz"}`), time.Date(2026, 3, 1, 14, 0, 0, 0, loc))
	require.NoError(t, err)
	require.Equal(t, time.UTC, row.IngestTS.Location())
	require.Equal(t, 12, row.IngestTS.Hour())
}
