package telemetry

import "strings"

const (
	// LowBatteryThreshold is the battery percentage below which an alert fires.
	LowBatteryThreshold = 20

	ReasonLowBattery  = "battery below 20%"
	ReasonStatusError = "status is error"

	errorStatus = "error"
)

// Decision is the outcome of evaluating one record against the alert rules.
type Decision struct {
	Triggered bool
	Reasons   []string
}

// Evaluate applies the alert rules to a record. Rules are independent and
// reasons are reported in a fixed order: battery first, then status.
func Evaluate(r *Record) Decision {
	var d Decision
	if r == nil {
		return d
	}

	if r.BatteryLevel != nil && *r.BatteryLevel < LowBatteryThreshold {
		d.Triggered = true
		d.Reasons = append(d.Reasons, ReasonLowBattery)
	}

	// An absent status never matches.
	if r.CurrentStatus != nil && strings.EqualFold(*r.CurrentStatus, errorStatus) {
		d.Triggered = true
		d.Reasons = append(d.Reasons, ReasonStatusError)
	}

	return d
}
