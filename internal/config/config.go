package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Edge contains runtime configuration for the edge node.
type Edge struct {
	MQTTHost       string
	MQTTPort       int
	CloudIngestURL string
	AggWindowSec   int
	AlertTempMax   float64
	HTTPAddr       string
}

// Sim contains runtime configuration for the sensor simulator.
type Sim struct {
	MQTTHost string
	MQTTPort int
}

// Cloud contains runtime configuration for the cloud API service.
type Cloud struct {
	DBURL     string
	HTTPAddr  string
	RecentSec int
}

// loadDotenv makes a local .env file available before reading the
// environment. Missing files are fine; containers set real env vars.
func loadDotenv() {
	_ = godotenv.Load()
}

// LoadEdge reads edge settings from environment variables.
// All values have defaults matching the docker-compose topology.
func LoadEdge() (Edge, error) {
	loadDotenv()

	cfg := Edge{
		MQTTHost:       getString("MQTT_HOST", "mosquitto"),
		CloudIngestURL: getString("CLOUD_INGEST_URL", "http://cloud-api:8000/ingest"),
		HTTPAddr:       getString("EDGE_HTTP_ADDR", ":8081"),
	}

	var err error
	if cfg.MQTTPort, err = getInt("MQTT_PORT", 1883); err != nil {
		return Edge{}, err
	}
	if cfg.AggWindowSec, err = getInt("AGG_WINDOW_SEC", 5); err != nil {
		return Edge{}, err
	}
	if cfg.AggWindowSec < 1 {
		return Edge{}, errors.New("AGG_WINDOW_SEC must be >= 1")
	}
	if cfg.AlertTempMax, err = getFloat("ALERT_TEMP_MAX", 8.0); err != nil {
		return Edge{}, err
	}

	return cfg, nil
}

// LoadSim reads simulator settings from environment variables.
// The simulator usually runs outside the compose network, hence the
// localhost default.
func LoadSim() (Sim, error) {
	loadDotenv()

	cfg := Sim{MQTTHost: getString("MQTT_HOST", "localhost")}

	var err error
	if cfg.MQTTPort, err = getInt("MQTT_PORT", 1883); err != nil {
		return Sim{}, err
	}
	return cfg, nil
}

// LoadCloud reads cloud settings from environment variables.
// DB_URL is required; everything else has a default.
func LoadCloud() (Cloud, error) {
	loadDotenv()

	cfg := Cloud{
		DBURL:    strings.TrimSpace(os.Getenv("DB_URL")),
		HTTPAddr: getString("HTTP_ADDR", ":8000"),
	}
	if cfg.DBURL == "" {
		return Cloud{}, errors.New("DB_URL required")
	}

	var err error
	if cfg.RecentSec, err = getInt("RECENT_SEC", 300); err != nil {
		return Cloud{}, err
	}
	if cfg.RecentSec < 1 || cfg.RecentSec > 86400 {
		return Cloud{}, errors.New("RECENT_SEC must be in [1, 86400]")
	}

	return cfg, nil
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}
