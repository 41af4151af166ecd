package models

import "encoding/json"

// EdgeMeta is the metadata the edge node attaches to every event it
// accepts. The JSON names are part of the edge→cloud wire contract.
type EdgeMeta struct {
	Topic      string `json:"topic"`
	ReceivedTS string `json:"received_ts"`
	Alert      string `json:"alert,omitempty"`
	// LatencyMs is filled in by the forwarder just before sending;
	// nil when the source timestamp could not be parsed.
	LatencyMs *int64 `json:"latency_ms_sensor_to_edge,omitempty"`
}

// TelemetryEvent is one normalized sensor reading in transit between
// the edge buffer and the cloud ingestion endpoint.
//
// Data is kept as raw JSON so the payload reaches storage byte-for-byte
// as the producer serialized it.
type TelemetryEvent struct {
	ID         string          `json:"id"`
	TS         string          `json:"ts"`
	ProductID  string          `json:"productId,omitempty"`
	LocationID string          `json:"locationId,omitempty"`
	Sensor     string          `json:"sensor,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Edge       *EdgeMeta       `json:"_edge,omitempty"`
}

// Batch is the body of one forwarding POST. It exists only in transit
// and is never persisted as an entity.
type Batch struct {
	BatchTS string           `json:"batch_ts"`
	Items   []TelemetryEvent `json:"items"`
}

// IngestResponse is returned by POST /ingest.
// Duplicates are ids that were already stored (idempotent success);
// skipped items lacked an id and could not be persisted.
type IngestResponse struct {
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
}
