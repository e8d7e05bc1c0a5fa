package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultDrainRate = 1.5

// Fleet is the set of simulated robots.
type Fleet struct {
	Robots []Robot `yaml:"robots"`
}

// Robot describes one simulated device.
type Robot struct {
	DeviceID string `yaml:"device_id"`
	// Battery is the starting charge in percent.
	Battery float64 `yaml:"battery"`
	// DrainRate is the mean battery drop per tick.
	DrainRate float64 `yaml:"drain_rate"`
	// ErrorRate is the chance per tick of reporting status "error".
	ErrorRate float64  `yaml:"error_rate"`
	Location  Location `yaml:"location"`
}

// Location is a robot's position within a site.
type Location struct {
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
	Room string  `yaml:"room"`
}

// DefaultFleet is used when no fleet file is given.
func DefaultFleet() *Fleet {
	return &Fleet{Robots: []Robot{
		{DeviceID: "robot-001", Battery: 95, DrainRate: 1.5, ErrorRate: 0.02, Location: Location{Lat: 32.0853, Lon: 34.7818, Room: "lobby"}},
		{DeviceID: "robot-002", Battery: 60, DrainRate: 2, ErrorRate: 0.05, Location: Location{Lat: 32.0855, Lon: 34.7821, Room: "office-a"}},
		{DeviceID: "robot-003", Battery: 24, DrainRate: 1, ErrorRate: 0.02, Location: Location{Lat: 32.0851, Lon: 34.7815, Room: "office-b"}},
		{DeviceID: "robot-004", Battery: 80, DrainRate: 3, ErrorRate: 0.1, Location: Location{Lat: 32.0858, Lon: 34.7824, Room: "warehouse"}},
	}}
}

// LoadFleet reads a fleet from a YAML file. An empty path yields DefaultFleet.
func LoadFleet(path string) (*Fleet, error) {
	if path == "" {
		return DefaultFleet(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fleet file: %w", err)
	}

	var fleet Fleet
	if err := yaml.Unmarshal(data, &fleet); err != nil {
		return nil, fmt.Errorf("failed to parse fleet file: %w", err)
	}
	if err := fleet.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fleet file %s: %w", path, err)
	}
	return &fleet, nil
}

// Validate checks robot definitions and fills in a default drain rate.
func (f *Fleet) Validate() error {
	if len(f.Robots) == 0 {
		return fmt.Errorf("fleet must define at least one robot")
	}

	seen := make(map[string]bool, len(f.Robots))
	for i := range f.Robots {
		r := &f.Robots[i]
		if r.DeviceID == "" {
			return fmt.Errorf("robot %d: device_id cannot be empty", i)
		}
		if seen[r.DeviceID] {
			return fmt.Errorf("robot %d: duplicate device_id %q", i, r.DeviceID)
		}
		seen[r.DeviceID] = true

		if r.Battery < 0 || r.Battery > 100 {
			return fmt.Errorf("robot %s: battery must be 0-100, got %v", r.DeviceID, r.Battery)
		}
		if r.ErrorRate < 0 || r.ErrorRate > 1 {
			return fmt.Errorf("robot %s: error_rate must be 0-1, got %v", r.DeviceID, r.ErrorRate)
		}
		if r.DrainRate < 0 {
			return fmt.Errorf("robot %s: drain_rate cannot be negative", r.DeviceID)
		}
		if r.DrainRate == 0 {
			r.DrainRate = defaultDrainRate
		}
	}
	return nil
}
