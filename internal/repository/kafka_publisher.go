package repository

import (
	"context"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	pkgkafka "CoinPulse/pkg/kafka"
)

// KafkaPredictionSink streams prediction records to a Kafka topic, keyed by
// model version so consumers can partition by pipeline generation.
type KafkaPredictionSink struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPredictionSink(producer *pkgkafka.Producer, topic string) repository.PredictionSink {
	return &KafkaPredictionSink{producer: producer, topic: topic}
}

func (p *KafkaPredictionSink) Publish(ctx context.Context, rec *models.PredictionRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(rec.ModelVersion), rec)
}

func (p *KafkaPredictionSink) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
