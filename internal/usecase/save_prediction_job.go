package usecase

import (
	"context"
	"fmt"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/pkg/logger"
	"CoinPulse/pkg/queue"
)

const savePredictionJobType = "prediction.save"

// SavePredictionJob persists a prediction record pulled off the Redis queue.
type SavePredictionJob struct {
	processor *PredictionProcessor
	log       *logger.Logger
}

func NewSavePredictionJob(processor *PredictionProcessor, log *logger.Logger) *SavePredictionJob {
	return &SavePredictionJob{processor: processor, log: log}
}

func (j *SavePredictionJob) Name() string { return "save_prediction" }
func (j *SavePredictionJob) Type() string { return savePredictionJobType }

func (j *SavePredictionJob) Handle(ctx context.Context, payload interface{}) error {
	rec, err := queue.ParsePayload[models.PredictionRecord](payload)
	if err != nil {
		return fmt.Errorf("parse prediction payload: %w", err)
	}
	if err := j.processor.Process(ctx, rec); err != nil {
		return err
	}
	j.log.Info("prediction persisted", logger.String("prediction", rec.Prediction))
	return nil
}

var _ queue.Job = (*SavePredictionJob)(nil)

// QueuedPredictionSaver pushes records onto the Redis queue so persistence
// never blocks the request path. If the enqueue fails the record is written
// directly in a best-effort goroutine.
type QueuedPredictionSaver struct {
	q         *queue.RedisQueue
	processor *PredictionProcessor
	log       *logger.Logger
}

func NewQueuedPredictionSaver(q *queue.RedisQueue, processor *PredictionProcessor, log *logger.Logger) *QueuedPredictionSaver {
	return &QueuedPredictionSaver{q: q, processor: processor, log: log}
}

func (s *QueuedPredictionSaver) SaveAsync(ctx context.Context, rec models.PredictionRecord) {
	if s.q != nil {
		err := s.q.Enqueue(ctx, savePredictionJobType, rec)
		if err == nil {
			return
		}
		s.log.Warn("prediction enqueue failed, writing directly", logger.Error(err))
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.processor.Process(ctx, &rec); err != nil {
			s.log.Error("background prediction save failed", logger.Error(err))
		}
	}()
}

// DirectPredictionSaver persists in a goroutine without a queue. Used when
// Redis is disabled.
type DirectPredictionSaver struct {
	processor *PredictionProcessor
	log       *logger.Logger
}

func NewDirectPredictionSaver(processor *PredictionProcessor, log *logger.Logger) *DirectPredictionSaver {
	return &DirectPredictionSaver{processor: processor, log: log}
}

func (s *DirectPredictionSaver) SaveAsync(_ context.Context, rec models.PredictionRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.processor.Process(ctx, &rec); err != nil {
			s.log.Error("background prediction save failed", logger.Error(err))
		}
	}()
}
