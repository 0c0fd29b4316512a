package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"dialbed/internal/models"
)

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client
}

// NewRealPublisher connects to the given broker. The availability topic is
// set online on connect and falls back to offline through the last will.
func NewRealPublisher(broker, clientID string) (*RealPublisher, error) {
	if clientID == "" {
		clientID = "dialbed"
	}
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(TopicAvailability, PayloadOffline, 1, true).
		SetOnConnectHandler(func(c paho.Client) {
			c.Publish(TopicAvailability, 1, true, PayloadOnline)
		})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return &RealPublisher{client: client}, nil
}

// PublishZone sends one zone's retained state message.
func (p *RealPublisher) PublishZone(st models.ZoneStatus) error {
	payload, err := FormatZonePayload(st)
	if err != nil {
		return fmt.Errorf("format zone payload: %w", err)
	}

	// QoS 0, retained: subscribers see the latest state immediately.
	token := p.client.Publish(ZoneTopic(st.Zone), 0, true, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close publishes offline and disconnects.
func (p *RealPublisher) Close() error {
	token := p.client.Publish(TopicAvailability, 1, true, PayloadOffline)
	token.WaitTimeout(time.Second)
	p.client.Disconnect(1000)
	return nil
}
