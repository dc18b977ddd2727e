package kafka

import (
	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
)

// Export produces search result events onto a Kafka topic.
type Export struct {
	Hosts []string
	Topic string

	producer sarama.SyncProducer
}

// NewExport gets a new Export with local development defaults.
func NewExport() *Export {
	return &Export{
		Hosts: []string{"localhost:9092"},
		Topic: "results",
	}
}

// Open initializes the kafka producer.
func (e *Export) Open() error {
	config := sarama.NewConfig()
	config.Version = sarama.V0_10_0_0
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForLocal

	var err error
	e.producer, err = sarama.NewSyncProducer(e.Hosts, config)
	return errors.Wrap(err, "getting new producer")
}

// Write publishes one result event to the topic.
func (e *Export) Write(event []byte) error {
	_, _, err := e.producer.SendMessage(&sarama.ProducerMessage{
		Topic: e.Topic,
		Value: sarama.ByteEncoder(event),
	})
	return errors.Wrap(err, "sending message")
}

// Close shuts the producer down, flushing any buffered messages.
func (e *Export) Close() error {
	return errors.Wrap(e.producer.Close(), "closing kafka producer")
}
