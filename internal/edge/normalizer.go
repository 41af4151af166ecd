package edge

import (
	"encoding/json"
	"log"
	"strconv"
	"time"

	"supplychain-telemetry/internal/models"
)

// Normalizer turns raw broker messages into normalized telemetry events
// and stages them in the shared buffer.
type Normalizer struct {
	buf     *Buffer
	metrics *Metrics

	alertTempMax float64
	alertLabel   string

	// now is swappable for tests.
	now func() time.Time
}

// NewNormalizer wires the normalizer to the shared buffer and metrics.
// alertTempMax is the env-sensor temperature above which an edge alert
// is attached.
func NewNormalizer(buf *Buffer, metrics *Metrics, alertTempMax float64) *Normalizer {
	return &Normalizer{
		buf:          buf,
		metrics:      metrics,
		alertTempMax: alertTempMax,
		alertLabel:   "TEMP_OVER_" + strconv.FormatFloat(alertTempMax, 'f', -1, 64),
		now:          time.Now,
	}
}

// envProbe pulls just the temperature out of an env payload. A non-numeric
// temp_c fails the unmarshal and is treated as absent.
type envProbe struct {
	TempC *float64 `json:"temp_c"`
}

// Handle parses one inbound message and appends the normalized event to
// the buffer. Malformed payloads are logged and dropped; no error
// reaches the caller and nothing is retried.
func (n *Normalizer) Handle(topic string, payload []byte) {
	var ev models.TelemetryEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.Printf("[EDGE] parse error on %s: %v", topic, err)
		return
	}
	n.metrics.MessageIn()

	ev.Edge = &models.EdgeMeta{
		Topic:      topic,
		ReceivedTS: n.now().UTC().Format(time.RFC3339Nano),
	}

	if ev.Sensor == "env" && len(ev.Data) > 0 {
		var probe envProbe
		if err := json.Unmarshal(ev.Data, &probe); err == nil &&
			probe.TempC != nil && *probe.TempC > n.alertTempMax {
			ev.Edge.Alert = n.alertLabel
			n.metrics.Alert()
		}
	}

	n.buf.Append(ev)
}
