package ingest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ZoneTelemetry is one reading published by a zone controller.
type ZoneTelemetry struct {
	ZoneID     *int      `json:"zone_id" validate:"required,gte=0"`
	SampleTime time.Time `json:"sample_time" validate:"required"`
	ExtTemp    *float64  `json:"ext_temp,omitempty"`
	TargetTemp *float64  `json:"target_temp,omitempty"`
	IndoorTemp *float64  `json:"indoor_temp,omitempty"`
}

// TopicPattern is the subscription filter for zone telemetry.
const TopicPattern = "building/+/zones/+/telemetry"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the shape of a reading: zone and time present, at least one
// temperature, and every temperature finite. Extreme values are kept.
func (t ZoneTelemetry) Validate() error {
	if err := validate.Struct(t); err != nil {
		return err
	}
	if t.ExtTemp == nil && t.TargetTemp == nil && t.IndoorTemp == nil {
		return errors.New("at least one of ext_temp, target_temp or indoor_temp is required")
	}
	for _, f := range []struct {
		name string
		v    *float64
	}{{"ext_temp", t.ExtTemp}, {"target_temp", t.TargetTemp}, {"indoor_temp", t.IndoorTemp}} {
		if f.v != nil && (math.IsNaN(*f.v) || math.IsInf(*f.v, 0)) {
			return fmt.Errorf("%s is not a finite number", f.name)
		}
	}
	return nil
}

// Topic returns the telemetry topic of a zone in a building.
func Topic(building string, zone int) string {
	return fmt.Sprintf("building/%s/zones/%d/telemetry", building, zone)
}

// ParseTopic extracts the building and zone segments of a telemetry topic.
func ParseTopic(topic string) (building, zone string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 5 || parts[0] != "building" || parts[2] != "zones" || parts[4] != "telemetry" {
		return "", "", false
	}
	if parts[1] == "" || parts[3] == "" {
		return "", "", false
	}
	return parts[1], parts[3], true
}

// checkTopicZone rejects messages whose payload zone disagrees with a numeric
// zone segment in the topic.
func checkTopicZone(topic string, t ZoneTelemetry) error {
	_, zone, ok := ParseTopic(topic)
	if !ok {
		return fmt.Errorf("unexpected topic %q", topic)
	}
	n, err := strconv.Atoi(zone)
	if err != nil {
		return nil
	}
	if t.ZoneID != nil && *t.ZoneID != n {
		return fmt.Errorf("topic zone %d does not match payload zone_id %d", n, *t.ZoneID)
	}
	return nil
}
