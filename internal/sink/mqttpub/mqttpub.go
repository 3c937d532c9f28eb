package mqttpub

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/sensormux/airlogger/internal/reading"
)

// Sink mirrors flushed batches to an MQTT broker on the local network as a
// single JSON array per flush. Optional; the BLE link and the SD log carry
// the data on their own.
type Sink struct {
	client mqtt.Client
	topic  string
}

// New connects to the broker and returns the sink.
func New(broker, clientID, topic string) (*Sink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &Sink{client: client, topic: topic}, nil
}

func (s *Sink) Name() string { return "mqtt" }

func (s *Sink) Flush(batch []reading.Reading) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("mqtt: encode batch: %w", err)
	}
	token := s.client.Publish(s.topic, 0, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("mqtt: publish to %s: %w", s.topic, token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (s *Sink) Close() {
	s.client.Disconnect(250)
}
