package alerting

import (
	"fmt"

	"github.com/wardmon/wardmon/pkg/models"
)

// primaryOrder is the tie-break for the single primary label when several
// channels violate at once. Security events outrank environmental ones, which
// is a deliberate design choice rather than an artifact of rule ordering.
var primaryOrder = []models.AlertType{
	models.AlertDoorIntrusion,
	models.AlertPoorAirQuality,
	models.AlertHighTemperature,
	models.AlertLowTemperature,
	models.AlertHighHumidity,
}

// Verdict is the evaluator's per-alert-type judgment for one reading. Alert
// types whose channel was not measured are absent from the map entirely.
type Verdict map[models.AlertType]bool

// Evaluate runs every rule whose channel the reading measured and returns the
// resulting verdict. It is a pure function of its inputs: no stored state is
// read or written here.
func Evaluate(r *models.Reading, rules []Rule) Verdict {
	verdict := make(Verdict)

	for i := range rules {
		rule := &rules[i]

		v, ok := r.Metric(rule.Channel)
		if !ok {
			continue
		}

		violating, measured := rule.Violates(v)
		if !measured {
			continue
		}

		// A rule already marked violating stays violating; rules for the
		// same alert type on disjoint ranges cannot both fire on one value.
		verdict[rule.Alert] = verdict[rule.Alert] || violating
	}

	return verdict
}

// Primary returns the single backward-compatible label for the verdict,
// or AlertNone when nothing violates.
func (v Verdict) Primary() models.AlertType {
	for _, t := range primaryOrder {
		if v[t] {
			return t
		}
	}

	return models.AlertNone
}

// Violating reports whether any channel violates its threshold.
func (v Verdict) Violating() bool {
	for _, violating := range v {
		if violating {
			return true
		}
	}

	return false
}

// Message builds the human-readable description stored on an opened alert.
func Message(t models.AlertType, r *models.Reading) string {
	metric := func(channel, unit string) string {
		if v, ok := r.Metric(channel); ok {
			return fmt.Sprintf("%g%s", v, unit)
		}

		return "N/A"
	}

	switch t {
	case models.AlertPoorAirQuality:
		return fmt.Sprintf("Poor air quality detected: %s", metric(models.ChannelAirQuality, " ppm"))
	case models.AlertHighTemperature:
		return fmt.Sprintf("High temperature alert: %s", metric(models.ChannelTemperature, "°C"))
	case models.AlertLowTemperature:
		return fmt.Sprintf("Low temperature alert: %s", metric(models.ChannelTemperature, "°C"))
	case models.AlertHighHumidity:
		return fmt.Sprintf("High humidity alert: %s", metric(models.ChannelHumidity, "%"))
	case models.AlertDoorIntrusion:
		return fmt.Sprintf("Unattended door activity detected: %s", metric(models.ChannelDistance, " cm"))
	default:
		return fmt.Sprintf("Alert: %s", t)
	}
}
