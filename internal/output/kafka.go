package output

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/chrisdamba/visitconsensus/internal/models"
)

var errProducerClosed = errors.New("kafka producer is closed")

// KafkaOutput publishes each message to <prefix><topic>.
type KafkaOutput struct {
	producer sarama.SyncProducer
	prefix   string
}

func NewKafkaOutput(config *models.Config) (*KafkaOutput, error) {
	brokerList := strings.Split(config.KafkaBrokerList, ",")
	for i := range brokerList {
		brokerList[i] = strings.TrimSpace(brokerList[i])
	}

	producer, err := sarama.NewSyncProducer(brokerList, newSaramaConfig(config))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return NewKafkaOutputWithProducer(producer, config.KafkaTopicPrefix), nil
}

func newSaramaConfig(config *models.Config) *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true // required by SyncProducer
	saramaConfig.Net.DialTimeout = 30 * time.Second
	saramaConfig.Net.ReadTimeout = 30 * time.Second
	saramaConfig.Net.WriteTimeout = 30 * time.Second

	// how long the brokers may wait for WaitForAll acks
	if config.ProducerTimeoutMs > 0 {
		saramaConfig.Producer.Timeout = time.Duration(config.ProducerTimeoutMs) * time.Millisecond
	}
	return saramaConfig
}

func NewKafkaOutputWithProducer(producer sarama.SyncProducer, prefix string) *KafkaOutput {
	return &KafkaOutput{producer: producer, prefix: prefix}
}

func (k *KafkaOutput) WriteMessage(topic string, msg []byte) error {
	if k.producer == nil {
		return errProducerClosed
	}
	_, _, err := k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.prefix + topic,
		Value: sarama.ByteEncoder(msg),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", k.prefix+topic, err)
	}
	return nil
}

func (k *KafkaOutput) Close() error {
	if k.producer == nil {
		return nil
	}
	err := k.producer.Close()
	k.producer = nil
	return err
}
