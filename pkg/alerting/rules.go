// Package alerting pkg/alerting/rules.go provides the table-driven threshold
// evaluator for normalized readings.
package alerting

import (
	"encoding/json"
	"fmt"

	"github.com/wardmon/wardmon/pkg/models"
)

// Op is a threshold comparator.
type Op string

const (
	OpAbove Op = "above"
	OpBelow Op = "below"
)

// Rule binds one metric channel to one alert type. A reading violates the
// rule when its channel value compares against Value per Op. Floor, when set,
// is an exclusive lower guard: values at or below it count as "no reading"
// for this rule and the channel is skipped, neither violating nor resolving.
type Rule struct {
	Channel string           `json:"channel"`
	Alert   models.AlertType `json:"alert"`
	Op      Op               `json:"comparator"`
	Value   float64          `json:"value"`
	Floor   *float64         `json:"floor,omitempty"`
}

// Violates reports whether the measured value v violates the rule, and
// whether the rule applies to v at all.
func (r *Rule) Violates(v float64) (violating, measured bool) {
	if r.Floor != nil && v <= *r.Floor {
		return false, false
	}

	switch r.Op {
	case OpAbove:
		return v > r.Value, true
	case OpBelow:
		return v < r.Value, true
	default:
		return false, false
	}
}

// Validate checks a rule set for structural problems.
func ValidateRules(rules []Rule) error {
	for i := range rules {
		r := &rules[i]

		if r.Channel == "" {
			return fmt.Errorf("%w: rule %d has no channel", errInvalidRule, i)
		}

		if r.Alert == "" || r.Alert == models.AlertNone {
			return fmt.Errorf("%w: rule %d (%s) has no alert type", errInvalidRule, i, r.Channel)
		}

		if r.Op != OpAbove && r.Op != OpBelow {
			return fmt.Errorf("%w: rule %d (%s) has comparator %q", errInvalidRule, i, r.Channel, r.Op)
		}
	}

	return nil
}

// UnmarshalJSON accepts ">" and "<" as aliases for the comparator names.
func (o *Op) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch s {
	case string(OpAbove), ">":
		*o = OpAbove
	case string(OpBelow), "<":
		*o = OpBelow
	default:
		return fmt.Errorf("%w: %q", errInvalidComparator, s)
	}

	return nil
}

// Default thresholds for this deployment.
const (
	DefaultAirQualityThreshold   = 600.0
	DefaultTempHighThreshold     = 30.0
	DefaultTempLowThreshold      = 18.0
	DefaultHumidityHighThreshold = 70.0
	DefaultDoorDistanceThreshold = 50.0
)

// DefaultRules returns the deployment's five canonical checks. The distance
// rule carries a zero floor: ultrasonic sensors report 0 when out of range,
// which must not read as closest-possible proximity.
func DefaultRules() []Rule {
	zero := 0.0

	return []Rule{
		{Channel: models.ChannelAirQuality, Alert: models.AlertPoorAirQuality, Op: OpAbove, Value: DefaultAirQualityThreshold},
		{Channel: models.ChannelTemperature, Alert: models.AlertHighTemperature, Op: OpAbove, Value: DefaultTempHighThreshold},
		{Channel: models.ChannelTemperature, Alert: models.AlertLowTemperature, Op: OpBelow, Value: DefaultTempLowThreshold},
		{Channel: models.ChannelHumidity, Alert: models.AlertHighHumidity, Op: OpAbove, Value: DefaultHumidityHighThreshold},
		{Channel: models.ChannelDistance, Alert: models.AlertDoorIntrusion, Op: OpBelow, Value: DefaultDoorDistanceThreshold, Floor: &zero},
	}
}
