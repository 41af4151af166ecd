// Command sensorsim plays the field-sensor role: it publishes synthetic
// gps, stock and env readings onto the telemetry topics at irregular
// intervals. It is a producer only; nothing in the pipeline depends on
// it.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"

	"supplychain-telemetry/internal/config"
	"supplychain-telemetry/internal/edge"
)

var (
	productIDs  = []string{"SKU-1001", "SKU-1002", "SKU-2003"}
	locationIDs = []string{"WH-RO-CLUJ", "WH-RO-B", "TRUCK-42"}
	sensors     = []string{"gps", "stock", "env"}
)

type reading struct {
	ID         string         `json:"id"`
	TS         string         `json:"ts"`
	ProductID  string         `json:"productId"`
	LocationID string         `json:"locationId"`
	Sensor     string         `json:"sensor"`
	Data       map[string]any `json:"data"`
}

func genData(sensor string) map[string]any {
	switch sensor {
	case "gps":
		return map[string]any{
			"lat":       46.77 + rand.Float64()*0.02 - 0.01,
			"lon":       23.59 + rand.Float64()*0.02 - 0.01,
			"speed_kmh": rand.Float64() * 70,
		}
	case "stock":
		level := int(rand.NormFloat64()*20 + 120)
		if level < 0 {
			level = 0
		}
		return map[string]any{"level": level, "reorder_point": 80, "safety_stock": 40}
	default:
		// 2–12 °C; anything over the cold-chain threshold trips the edge alert.
		return map[string]any{
			"temp_c":       2 + rand.Float64()*10,
			"humidity_pct": 30 + rand.Float64()*50,
		}
	}
}

func main() {
	cfg, err := config.LoadSim()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverURL, err := url.Parse(fmt.Sprintf("mqtt://%s:%d", cfg.MQTTHost, cfg.MQTTPort))
	if err != nil {
		log.Fatal(err)
	}

	clientID := "sim-" + uuid.New().String()[:8]
	cm, err := autopaho.NewConnection(ctx, autopaho.ClientConfig{
		ServerUrls: []*url.URL{serverURL},
		KeepAlive:  30,
		OnConnectError: func(err error) {
			log.Printf("[SIM] connect error: %v", err)
		},
		ClientConfig: paho.ClientConfig{ClientID: clientID},
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := cm.AwaitConnection(ctx); err != nil {
		log.Fatal(err)
	}
	log.Printf("[SIM] connected to %s as %s", serverURL, clientID)

	for {
		sensor := sensors[rand.Intn(len(sensors))]
		payload, _ := json.Marshal(reading{
			ID:         uuid.New().String(),
			TS:         time.Now().UTC().Format(time.RFC3339Nano),
			ProductID:  productIDs[rand.Intn(len(productIDs))],
			LocationID: locationIDs[rand.Intn(len(locationIDs))],
			Sensor:     sensor,
			Data:       genData(sensor),
		})

		topic := edge.TopicFor(sensor)
		if _, err := cm.Publish(ctx, &paho.Publish{Topic: topic, Payload: payload}); err != nil {
			log.Printf("[SIM] publish error: %v", err)
		} else {
			log.Printf("[SIM] pub %s %s", topic, payload)
		}

		select {
		case <-ctx.Done():
			_ = cm.Disconnect(context.Background())
			return
		case <-time.After(time.Second + time.Duration(rand.Intn(1000))*time.Millisecond):
		}
	}
}
