package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	stored []ZoneTelemetry
	err    error
}

func (f *fakeRepository) InsertReading(_ context.Context, t ZoneTelemetry) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, t)
	return nil
}

func (f *fakeRepository) InsertReadings(ctx context.Context, batch []ZoneTelemetry) (int, error) {
	for _, t := range batch {
		if err := f.InsertReading(ctx, t); err != nil {
			return 0, err
		}
	}
	return len(batch), nil
}

type fakeRecorder map[string]int

func (f fakeRecorder) IngestMessage(outcome string) { f[outcome]++ }

type fakeSubscriber struct {
	handler func(topic string, payload []byte) error
}

func (f *fakeSubscriber) SetMessageHandler(h func(topic string, payload []byte) error) {
	f.handler = h
}

func TestService_Register(t *testing.T) {
	repo := &fakeRepository{}
	sub := &fakeSubscriber{}
	NewService(repo, nil, nil).Register(sub)
	require.NotNil(t, sub.handler)

	err := sub.handler("building/a/zones/2/telemetry",
		[]byte(`{"zone_id":2,"sample_time":"2025-01-01T00:00:00Z","ext_temp":3.5}`))
	require.NoError(t, err)
	require.Len(t, repo.stored, 1)
	assert.Equal(t, 2, *repo.stored[0].ZoneID)
	assert.Equal(t, 3.5, *repo.stored[0].ExtTemp)
}

func TestService_HandleMessage(t *testing.T) {
	tests := []struct {
		name        string
		topic       string
		payload     string
		repoErr     error
		wantInvalid bool
		wantErr     bool
		wantOutcome string
	}{
		{
			name:        "stored",
			topic:       "building/a/zones/1/telemetry",
			payload:     `{"zone_id":1,"sample_time":"2025-01-01T00:00:00Z","indoor_temp":20.5,"target_temp":21}`,
			wantOutcome: "stored",
		},
		{
			name:        "extreme reading stored",
			topic:       "building/a/zones/1/telemetry",
			payload:     `{"zone_id":1,"sample_time":"2025-01-01T00:00:00Z","ext_temp":1000}`,
			wantOutcome: "stored",
		},
		{
			name:        "bad json",
			topic:       "building/a/zones/1/telemetry",
			payload:     `{"zone_id":`,
			wantInvalid: true,
			wantErr:     true,
			wantOutcome: "invalid",
		},
		{
			name:        "failed validation",
			topic:       "building/a/zones/1/telemetry",
			payload:     `{"zone_id":1,"sample_time":"2025-01-01T00:00:00Z"}`,
			wantInvalid: true,
			wantErr:     true,
			wantOutcome: "invalid",
		},
		{
			name:        "zone mismatch",
			topic:       "building/a/zones/9/telemetry",
			payload:     `{"zone_id":1,"sample_time":"2025-01-01T00:00:00Z","ext_temp":1}`,
			wantInvalid: true,
			wantErr:     true,
			wantOutcome: "invalid",
		},
		{
			name:        "repository failure",
			topic:       "building/a/zones/1/telemetry",
			payload:     `{"zone_id":1,"sample_time":"2025-01-01T00:00:00Z","ext_temp":1}`,
			repoErr:     errors.New("database is locked"),
			wantErr:     true,
			wantOutcome: "failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := fakeRecorder{}
			svc := NewService(&fakeRepository{err: tt.repoErr}, nil, rec)

			err := svc.HandleMessage(tt.topic, []byte(tt.payload))
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantInvalid, errors.Is(err, ErrInvalidTelemetry))
			assert.Equal(t, 1, rec[tt.wantOutcome])
		})
	}
}
