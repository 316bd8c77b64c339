package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/aniicone/cafe-api/pkg/logger"
)

// KeyFunc picks the partition key for a payload. An empty key lets the
// producer choose the partition.
type KeyFunc func(payload interface{}) string

// Envelope is the message value written to Kafka.
type Envelope struct {
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload"`
	EventTime time.Time   `json:"event_time"`
}

// KafkaPublisher forwards bus events to Kafka, one topic per event name.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	key      KeyFunc
}

// NewKafkaProducer dials brokers with acks from all in-sync replicas.
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	cfg.Version = sarama.V2_6_0_0

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("event: kafka producer: %w", err)
	}
	return p, nil
}

func NewKafkaPublisher(producer sarama.SyncProducer, key KeyFunc) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, key: key}
}

// Publish sends one event synchronously.
func (p *KafkaPublisher) Publish(name string, payload interface{}) error {
	data, err := json.Marshal(Envelope{Event: name, Payload: payload, EventTime: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("event: encode %s: %w", name, err)
	}

	msg := &sarama.ProducerMessage{Topic: name, Value: sarama.ByteEncoder(data)}
	if p.key != nil {
		if k := p.key(payload); k != "" {
			msg.Key = sarama.StringEncoder(k)
		}
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("event: publish %s: %w", name, err)
	}
	logger.Debug("event: published to kafka", "topic", name, "partition", partition, "offset", offset)
	return nil
}

// Attach publishes every event fired on bus. Failures are logged.
func (p *KafkaPublisher) Attach(bus *Bus) {
	bus.Listen("*", func(name string, payload interface{}) {
		if err := p.Publish(name, payload); err != nil {
			logger.Error("event: kafka publish failed", "event", name, "error", err)
		}
	})
}

func (p *KafkaPublisher) Close() error { return p.producer.Close() }
