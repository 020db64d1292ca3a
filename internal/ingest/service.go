// Package ingest stores live zone telemetry in the warehouse table.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrInvalidTelemetry marks messages that were dropped without a retry.
var ErrInvalidTelemetry = errors.New("invalid telemetry")

// MessageSubscriber is implemented by the MQTT subscriber.
type MessageSubscriber interface {
	SetMessageHandler(handler func(topic string, payload []byte) error)
}

// Recorder counts messages by outcome. *metrics.Metrics satisfies it.
type Recorder interface {
	IngestMessage(outcome string)
}

type Service struct {
	repository ReadingRepository
	logger     *slog.Logger
	recorder   Recorder
	timeout    time.Duration
}

func NewService(repository ReadingRepository, logger *slog.Logger, recorder Recorder) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repository: repository, logger: logger, recorder: recorder, timeout: 5 * time.Second}
}

// Register attaches the service to a subscriber.
func (s *Service) Register(subscriber MessageSubscriber) {
	subscriber.SetMessageHandler(s.HandleMessage)
}

// HandleMessage decodes, validates and stores one telemetry payload.
func (s *Service) HandleMessage(topic string, payload []byte) error {
	var t ZoneTelemetry
	if err := json.Unmarshal(payload, &t); err != nil {
		s.count("invalid")
		return fmt.Errorf("%w: decode: %v", ErrInvalidTelemetry, err)
	}
	if err := t.Validate(); err != nil {
		s.count("invalid")
		return fmt.Errorf("%w: %v", ErrInvalidTelemetry, err)
	}
	if err := checkTopicZone(topic, t); err != nil {
		s.count("invalid")
		return fmt.Errorf("%w: %v", ErrInvalidTelemetry, err)
	}

	s.logger.Debug("processing telemetry message",
		"topic", topic,
		"zone_id", *t.ZoneID,
		"sample_time", t.SampleTime,
	)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.repository.InsertReading(ctx, t); err != nil {
		s.count("failed")
		s.logger.Error("failed to insert reading", "zone_id", *t.ZoneID, "error", err)
		return err
	}

	s.count("stored")
	s.logger.Debug("successfully stored telemetry", "zone_id", *t.ZoneID)
	return nil
}

func (s *Service) count(outcome string) {
	if s.recorder != nil {
		s.recorder.IngestMessage(outcome)
	}
}
