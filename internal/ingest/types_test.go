package ingest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestZoneTelemetry_Validate(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		in      ZoneTelemetry
		wantErr bool
	}{
		{name: "all fields", in: ZoneTelemetry{ZoneID: ptr(3), SampleTime: ts, ExtTemp: ptr(4.5), TargetTemp: ptr(21.0), IndoorTemp: ptr(20.5)}},
		{name: "single reading", in: ZoneTelemetry{ZoneID: ptr(0), SampleTime: ts, IndoorTemp: ptr(20.5)}},
		{name: "missing zone", in: ZoneTelemetry{SampleTime: ts, ExtTemp: ptr(1.0)}, wantErr: true},
		{name: "negative zone", in: ZoneTelemetry{ZoneID: ptr(-1), SampleTime: ts, ExtTemp: ptr(1.0)}, wantErr: true},
		{name: "missing time", in: ZoneTelemetry{ZoneID: ptr(1), ExtTemp: ptr(1.0)}, wantErr: true},
		{name: "no readings", in: ZoneTelemetry{ZoneID: ptr(1), SampleTime: ts}, wantErr: true},
		{name: "extreme values are kept", in: ZoneTelemetry{ZoneID: ptr(1), SampleTime: ts, ExtTemp: ptr(1000.0), TargetTemp: ptr(-5.0)}},
		{name: "infinite reading", in: ZoneTelemetry{ZoneID: ptr(1), SampleTime: ts, ExtTemp: ptr(math.Inf(1))}, wantErr: true},
		{name: "NaN reading", in: ZoneTelemetry{ZoneID: ptr(1), SampleTime: ts, IndoorTemp: ptr(math.NaN())}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTopic(t *testing.T) {
	topic := Topic("a", 7)
	assert.Equal(t, "building/a/zones/7/telemetry", topic)

	building, zone, ok := ParseTopic(topic)
	assert.True(t, ok)
	assert.Equal(t, "a", building)
	assert.Equal(t, "7", zone)

	for _, bad := range []string{"", "building/a/zones/7", "stations/7/telemetry", "building//zones/7/telemetry", "building/a/rooms/7/telemetry"} {
		_, _, ok := ParseTopic(bad)
		assert.Falsef(t, ok, "ParseTopic(%q) ok", bad)
	}
}

func TestCheckTopicZone(t *testing.T) {
	tel := ZoneTelemetry{ZoneID: ptr(3)}
	assert.NoError(t, checkTopicZone("building/a/zones/3/telemetry", tel))
	assert.NoError(t, checkTopicZone("building/a/zones/lobby/telemetry", tel))
	assert.Error(t, checkTopicZone("building/a/zones/4/telemetry", tel))
	assert.Error(t, checkTopicZone("other/topic", tel))
}
