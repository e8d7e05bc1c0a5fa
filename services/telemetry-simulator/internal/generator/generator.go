// Package generator simulates a fleet of robots and produces one telemetry
// event per robot per tick. A fixed seed makes the sequence reproducible.
package generator

import (
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/afikmenashe/robot-telemetry/pkg/telemetry"
	"github.com/afikmenashe/robot-telemetry/services/telemetry-simulator/internal/config"
)

const (
	// chargeRate is the battery gain per tick while docked.
	chargeRate = 12.0
	// dockThreshold sends a robot to charge.
	dockThreshold = 8.0
	// locationDrift bounds the per-tick movement in degrees.
	locationDrift = 0.0002
)

var workingStatuses = []string{"cleaning", "cleaning", "cleaning", "idle", "returning"}

var airQualities = []string{"good", "good", "moderate", "poor"}

// Event is one generated telemetry event.
type Event struct {
	ID       string
	DeviceID string
	Shape    telemetry.Shape
	Body     map[string]any
}

// Envelope wraps the body in the event's envelope shape.
func (e *Event) Envelope() map[string]any {
	return telemetry.NewEnvelopeMap(e.Shape, e.ID, e.Body)
}

type robotState struct {
	spec       config.Robot
	battery    float64
	charging   bool
	lat, lon   float64
	filterLife float64
}

// Generator advances the simulated fleet one tick at a time. It is not safe
// for concurrent use.
type Generator struct {
	rng       *rand.Rand
	robots    []*robotState
	shapeMode string
	now       func() time.Time
}

// New creates a generator for the fleet. A zero seed uses the current time.
func New(fleet *config.Fleet, seed int64, shapeMode string) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	robots := make([]*robotState, 0, len(fleet.Robots))
	for _, r := range fleet.Robots {
		robots = append(robots, &robotState{
			spec:       r,
			battery:    r.Battery,
			lat:        r.Location.Lat,
			lon:        r.Location.Lon,
			filterLife: 100,
		})
	}

	return &Generator{
		rng:       rand.New(rand.NewSource(seed)),
		robots:    robots,
		shapeMode: strings.ToLower(shapeMode),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Size returns the number of simulated robots.
func (g *Generator) Size() int {
	return len(g.robots)
}

// Tick advances every robot and returns one event per robot, in fleet order.
func (g *Generator) Tick() []*Event {
	ts := g.now().Format(time.RFC3339)
	events := make([]*Event, 0, len(g.robots))
	for _, r := range g.robots {
		events = append(events, &Event{
			ID:       uuid.New().String(),
			DeviceID: r.spec.DeviceID,
			Shape:    g.nextShape(),
			Body:     g.advance(r, ts),
		})
	}
	return events
}

func (g *Generator) nextShape() telemetry.Shape {
	switch g.shapeMode {
	case config.ShapeFlat:
		return telemetry.ShapeFlat
	case config.ShapeMixed:
		if g.rng.Intn(2) == 0 {
			return telemetry.ShapeFlat
		}
		return telemetry.ShapeNested
	default:
		return telemetry.ShapeNested
	}
}

// advance moves a robot one tick forward and returns its telemetry body.
// Values are limited to float64, string and nested maps so the body
// encodes identically in JSON, CBOR and protobuf Struct.
func (g *Generator) advance(r *robotState, ts string) map[string]any {
	var status string
	switch {
	case r.charging:
		r.battery = math.Min(100, r.battery+chargeRate)
		status = "charging"
		if r.battery >= 100 {
			r.charging = false
			status = "idle"
		}
	default:
		r.battery = math.Max(0, r.battery-r.spec.DrainRate*(0.5+g.rng.Float64()))
		r.lat += (g.rng.Float64()*2 - 1) * locationDrift
		r.lon += (g.rng.Float64()*2 - 1) * locationDrift
		r.filterLife = math.Max(0, r.filterLife-0.1)
		status = workingStatuses[g.rng.Intn(len(workingStatuses))]
		if r.battery <= dockThreshold {
			r.charging = true
			status = "returning"
		}
	}
	// Faults can interrupt any state.
	if g.rng.Float64() < r.spec.ErrorRate {
		status = "error"
	}

	location := map[string]any{
		"lat": round(r.lat, 6),
		"lon": round(r.lon, 6),
	}
	if r.spec.Location.Room != "" {
		location["room"] = r.spec.Location.Room
	}

	return map[string]any{
		"deviceId":      r.spec.DeviceID,
		"ttimestamp":    ts,
		"batteryLevel":  round(r.battery, 1),
		"currentStatus": status,
		"purificationStatus": map[string]any{
			"filterLife": round(r.filterLife, 1),
			"airQuality": airQualities[g.rng.Intn(len(airQualities))],
		},
		"location": location,
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
