package main

import (
	"context"
	"log"
	"time"

	"supplychain-telemetry/internal/config"
	"supplychain-telemetry/internal/edge"
)

// main boots the edge node. The subscriber and the forwarder share
// exactly one buffer and one metrics object; everything else is their
// own.
func main() {
	cfg, err := config.LoadEdge()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	buf := &edge.Buffer{}
	metrics := &edge.Metrics{}

	normalizer := edge.NewNormalizer(buf, metrics, cfg.AlertTempMax)
	forwarder := edge.NewForwarder(buf, metrics, cfg.CloudIngestURL,
		time.Duration(cfg.AggWindowSec)*time.Second)

	sub, err := edge.NewSubscriber(normalizer, cfg.MQTTHost, cfg.MQTTPort)
	if err != nil {
		log.Fatal(err)
	}

	go forwarder.Run(ctx)
	go func() {
		if err := sub.Run(ctx); err != nil {
			log.Fatalf("[EDGE] subscriber: %v", err)
		}
	}()

	router := edge.NewRouter(metrics)
	log.Printf("[EDGE] health endpoint on %s, forwarding to %s every %ds",
		cfg.HTTPAddr, cfg.CloudIngestURL, cfg.AggWindowSec)
	log.Fatal(router.Run(cfg.HTTPAddr))
}
