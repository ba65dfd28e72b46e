package publish

import (
	"context"
	"encoding/json"

	"codeberg.org/arlen/sensorctl/internal/errors"
	"codeberg.org/arlen/sensorctl/internal/telemetry"
	"github.com/IBM/sarama"
)

// KafkaPublisher publishes samples to a Kafka topic, keyed by sensor family.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	errFactory := errors.New()

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, errFactory.Wrap(ErrProducerInit, err)
	}

	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
	}, nil
}

func (p *KafkaPublisher) Publish(_ context.Context, sensorType string, s *telemetry.Sample) error {
	errFactory := errors.New()

	payload, err := json.Marshal(s)
	if err != nil {
		return errFactory.Wrap(ErrEncodeSample, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(sensorType),
		Value: sarama.ByteEncoder(payload),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return errFactory.Wrap(ErrPublishFailed, err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return errors.New().Wrap(ErrProducerClose, err)
	}
	return nil
}
