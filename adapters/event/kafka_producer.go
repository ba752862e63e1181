package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/afrovod/afrovod/internal/config"
)

const (
	TopicSelectionJobs = "selection.jobs"
	TopicSyncJobs      = "sync.jobs"
)

type KafkaProducerClient struct {
	SelectionJobsWriter *kafka.Writer
	SyncJobsWriter      *kafka.Writer
}

func NewKafkaProducerClient(cfg config.Config) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	// writer 'selection.jobs'
	selectionWriter := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    TopicSelectionJobs,
		Balancer: &kafka.LeastBytes{},
	}

	// writer 'sync.jobs'
	syncWriter := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    TopicSyncJobs,
		Balancer: &kafka.LeastBytes{},
	}

	return &KafkaProducerClient{
		SelectionJobsWriter: selectionWriter,
		SyncJobsWriter:      syncWriter,
	}, nil
}

func (c *KafkaProducerClient) PublishSelectionJob(ctx context.Context, payload SelectionJobPayload) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal selection job: %w", err)
	}
	return c.SelectionJobsWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(payload.UpdateID.String()),
		Value: value,
	})
}

func (c *KafkaProducerClient) PublishSyncJob(ctx context.Context, payload SyncJobPayload) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sync job: %w", err)
	}
	return c.SyncJobsWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(payload.UpdateID.String()),
		Value: value,
	})
}

func (c *KafkaProducerClient) Close() {
	if c.SelectionJobsWriter != nil {
		c.SelectionJobsWriter.Close()
	}
	if c.SyncJobsWriter != nil {
		c.SyncJobsWriter.Close()
	}
}
