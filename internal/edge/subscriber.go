package edge

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
)

// TopicFilter is the wildcard subscription covering every sensor topic.
const TopicFilter = "sc/telemetry/#"

// queueCap bounds the inbound queue between the broker callback and the
// consumer goroutine. A full queue drops the message rather than block
// the MQTT receive path.
const queueCap = 1024

type inbound struct {
	topic   string
	payload []byte
}

// Subscriber connects to the broker, receives raw telemetry messages
// and hands them to the normalizer through a bounded queue drained by a
// single consumer goroutine, so broker timing never couples to buffer
// mutation timing.
type Subscriber struct {
	normalizer *Normalizer
	serverURL  *url.URL
	clientID   string
	queue      chan inbound
}

// NewSubscriber builds a subscriber for the broker at host:port.
func NewSubscriber(normalizer *Normalizer, host string, port int) (*Subscriber, error) {
	u, err := url.Parse(fmt.Sprintf("mqtt://%s:%d", host, port))
	if err != nil {
		return nil, err
	}
	return &Subscriber{
		normalizer: normalizer,
		serverURL:  u,
		clientID:   "edge-node",
		queue:      make(chan inbound, queueCap),
	}, nil
}

// Run connects, subscribes and processes messages until ctx is
// cancelled. The connection manager reconnects and re-subscribes on
// broker loss.
func (s *Subscriber) Run(ctx context.Context) error {
	go s.consume(ctx)

	cm, err := autopaho.NewConnection(ctx, autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{s.serverURL},
		KeepAlive:                     30,
		CleanStartOnInitialConnection: true,
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			log.Printf("[EDGE] MQTT connected, subscribing to %s", TopicFilter)
			if _, err := cm.Subscribe(ctx, &paho.Subscribe{
				Subscriptions: []paho.SubscribeOptions{
					{Topic: TopicFilter, QoS: 0},
				},
			}); err != nil {
				log.Printf("[EDGE] subscribe error: %v", err)
			}
		},
		OnConnectError: func(err error) {
			log.Printf("[EDGE] MQTT connect error: %v", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: s.clientID,
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				func(pr paho.PublishReceived) (bool, error) {
					s.enqueue(pr.Packet.Topic, pr.Packet.Payload)
					return true, nil
				},
			},
		},
	})
	if err != nil {
		return err
	}

	if err := cm.AwaitConnection(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return cm.Disconnect(context.Background())
}

// enqueue hands one raw message to the consumer, dropping it when the
// queue is full.
func (s *Subscriber) enqueue(topic string, payload []byte) {
	select {
	case s.queue <- inbound{topic: topic, payload: payload}:
	default:
		log.Printf("[EDGE] inbound queue full, dropping message on %s", topic)
	}
}

func (s *Subscriber) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.queue:
			s.normalizer.Handle(msg.topic, msg.payload)
		}
	}
}

// TopicFor maps a sensor kind to its publish topic, mirroring the
// producer's layout.
func TopicFor(sensor string) string {
	return "sc/telemetry/" + sensor
}
