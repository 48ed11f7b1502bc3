package output

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"

	"github.com/chrisdamba/crashlens/internal/loader"
	"github.com/chrisdamba/crashlens/internal/models"
)

// KafkaOutput publishes each dataset to its own topic, named
// "<prefix>.<dataset>", one JSON message per record.
type KafkaOutput struct {
	producer    sarama.SyncProducer
	topicPrefix string
}

func NewKafkaOutput(config models.KafkaConfig) (*KafkaOutput, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true // required by SyncProducer
	saramaConfig.Net.DialTimeout = 30 * time.Second
	saramaConfig.Net.ReadTimeout = 30 * time.Second
	saramaConfig.Net.WriteTimeout = 30 * time.Second

	brokerList := strings.Split(config.BrokerList, ",")

	producer, err := sarama.NewSyncProducer(brokerList, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}

	log.Info().Strs("brokers", brokerList).Msg("Sarama producer created")
	return NewKafkaOutputWithProducer(producer, config.TopicPrefix), nil
}

func NewKafkaOutputWithProducer(producer sarama.SyncProducer, topicPrefix string) *KafkaOutput {
	return &KafkaOutput{producer: producer, topicPrefix: topicPrefix}
}

func (k *KafkaOutput) WriteAggregates(_ context.Context, aggregates []models.Aggregate) error {
	return sendRecords(k, DatasetAggregates, aggregates, func(a models.Aggregate) string {
		return a.LocationKey + "/" + a.TimeBucket
	})
}

func (k *KafkaOutput) WriteHotspots(_ context.Context, hotspots []models.Hotspot) error {
	return sendRecords(k, DatasetHotspots, hotspots, func(h models.Hotspot) string {
		return h.LocationKey
	})
}

func (k *KafkaOutput) WriteDropSummary(_ context.Context, rows []models.AuditRow) error {
	return sendRecords(k, DatasetDropSummary, rows, func(r models.AuditRow) string {
		return r.Key
	})
}

func (k *KafkaOutput) WriteTable(_ context.Context, name string, table *loader.Table) error {
	return sendRecords(k, name, tableRecords(table), func(map[string]string) string { return "" })
}

func (k *KafkaOutput) Topic(dataset string) string {
	if k.topicPrefix == "" {
		return dataset
	}
	return k.topicPrefix + "." + dataset
}

func (k *KafkaOutput) Close() error {
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}

func sendRecords[T any](k *KafkaOutput, dataset string, records []T, key func(T) string) error {
	if k.producer == nil {
		return fmt.Errorf("kafka producer is closed")
	}
	if len(records) == 0 {
		return nil
	}

	topic := k.Topic(dataset)
	messages := make([]*sarama.ProducerMessage, 0, len(records))
	for _, record := range records {
		value, err := json.Marshal(record)
		if err != nil {
			return err
		}
		msg := &sarama.ProducerMessage{Topic: topic, Value: sarama.ByteEncoder(value)}
		if id := key(record); id != "" {
			msg.Key = sarama.StringEncoder(id)
		}
		messages = append(messages, msg)
	}

	if err := k.producer.SendMessages(messages); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to send messages")
		return err
	}
	return nil
}
