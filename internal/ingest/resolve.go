// Package ingest normalizes batch items into storable telemetry rows.
// Producers are loose with field names (camelCase vs snake_case) and
// payload shapes, so every lookup here is an ordered fallback over raw
// JSON values.
package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"supplychain-telemetry/internal/store"
)

// Item is one event-shaped record from a forwarded batch. Values stay
// raw so the sensor payload is stored exactly as it was serialized.
type Item map[string]json.RawMessage

// ErrMissingID marks an item that cannot be persisted because it has no
// usable primary key.
var ErrMissingID = errors.New("item has no id")

// edgeMeta mirrors the optional _edge object attached by the edge node.
type edgeMeta struct {
	Topic     *string `json:"topic"`
	Alert     *string `json:"alert"`
	LatencyMs *int64  `json:"latency_ms_sensor_to_edge"`
}

// FirstPresent returns the raw value of the first candidate key that is
// present and not JSON null.
func FirstPresent(item Item, keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		raw, ok := item[k]
		if !ok || isNull(raw) {
			continue
		}
		return raw, true
	}
	return nil, false
}

// StringField resolves the first present candidate key to a string.
// JSON strings decode normally; other scalar values fall back to their
// serialized text (a numeric id still becomes a usable key).
func StringField(item Item, keys ...string) (string, bool) {
	raw, ok := FirstPresent(item, keys...)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(bytes.TrimSpace(raw)), true
}

// PayloadText resolves the sensor payload to its serialized text form.
// A structured `data` value keeps its exact bytes; a `data` that is
// already a JSON string is unquoted; otherwise `data_json` is accepted.
func PayloadText(item Item) (string, bool) {
	if raw, ok := FirstPresent(item, "data"); ok {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s, true
		}
		return string(raw), true
	}
	if s, ok := StringField(item, "data_json"); ok {
		return s, true
	}
	return "", false
}

// Normalize converts one batch item into a storable row. ingestTS is
// assigned by the caller at the cloud boundary, never taken from the
// item. Items without an id return ErrMissingID.
func Normalize(item Item, ingestTS time.Time) (store.TelemetryRow, error) {
	id, ok := StringField(item, "id")
	if !ok || id == "" {
		return store.TelemetryRow{}, ErrMissingID
	}

	row := store.TelemetryRow{
		ID:       id,
		IngestTS: ingestTS.UTC(),
	}

	if ts, ok := StringField(item, "ts"); ok {
		row.TS = ts
	}
	if s, ok := StringField(item, "sensor"); ok {
		row.Sensor = &s
	}
	if s, ok := StringField(item, "productId", "product_id"); ok {
		row.ProductID = &s
	}
	if s, ok := StringField(item, "locationId", "location_id"); ok {
		row.LocationID = &s
	}
	if s, ok := PayloadText(item); ok {
		row.DataJSON = &s
	}

	if raw, ok := FirstPresent(item, "_edge"); ok {
		var meta edgeMeta
		if err := json.Unmarshal(raw, &meta); err == nil {
			row.Topic = meta.Topic
			row.EdgeAlert = meta.Alert
			row.EdgeLatencyMs = meta.LatencyMs
		}
	}

	return row, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
