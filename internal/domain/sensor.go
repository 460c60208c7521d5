package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/timely/internal/horizon"
	"github.com/Harshitk-cp/timely/internal/timecodec"
	"github.com/google/uuid"
)

var (
	ErrNegativeResolution = errors.New("event_resolution must not be negative")
	ErrUnknownTimezone    = errors.New("unknown timezone")
)

// Sensor records events of a physical or economical quantity. Its event
// resolution and knowledge horizon rule determine, for any event start, when
// knowledge about that event becomes available.
//
// A sensor's horizon rule may be read concurrently but must only be
// reassigned by one writer at a time.
type Sensor struct {
	ID                  uuid.UUID     `json:"id"`
	TenantID            uuid.UUID     `json:"tenant_id,omitempty"`
	Name                string        `json:"name"`
	Unit                string        `json:"unit"`
	Timezone            string        `json:"timezone"`
	EventResolution     time.Duration `json:"-"`
	KnowledgeHorizonFnc string        `json:"knowledge_horizon_fnc"`
	KnowledgeHorizonPar timecodec.Bag `json:"knowledge_horizon_par"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

type SensorOption func(*sensorOptions) error

type sensorOptions struct {
	spec *horizon.Spec
}

// WithFixedHorizon stores d under the constant rule.
func WithFixedHorizon(d time.Duration) SensorOption {
	return func(o *sensorOptions) error {
		spec := horizon.NewConstantSpec(d)
		o.spec = &spec
		return nil
	}
}

// WithHorizonRule selects a registered rule. params hold native values and are
// encoded right away.
func WithHorizonRule(name string, params timecodec.Bag) SensorOption {
	return func(o *sensorOptions) error {
		spec, err := horizon.NewRuleSpec(name, params)
		if err != nil {
			return err
		}
		o.spec = &spec
		return nil
	}
}

// NewSensor builds a sensor. Without a horizon option, knowledge about an
// event becomes available exactly when the event ends.
func NewSensor(name, unit, timezone string, eventResolution time.Duration, opts ...SensorOption) (*Sensor, error) {
	if eventResolution < 0 {
		return nil, ErrNegativeResolution
	}
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := timecodec.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, timezone)
	}

	var o sensorOptions
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	spec := horizon.Spec{Fnc: horizon.RuleExPost, Par: timecodec.Bag{}}
	if o.spec != nil {
		spec = *o.spec
	}

	return &Sensor{
		Name:                name,
		Unit:                unit,
		Timezone:            timezone,
		EventResolution:     eventResolution,
		KnowledgeHorizonFnc: spec.Fnc,
		KnowledgeHorizonPar: spec.Par,
	}, nil
}

// HorizonSpec returns the persisted rule reference.
func (s *Sensor) HorizonSpec() horizon.Spec {
	return horizon.Spec{Fnc: s.KnowledgeHorizonFnc, Par: s.KnowledgeHorizonPar}
}

// SetHorizonSpec replaces the horizon rule. Callers serialize updates.
func (s *Sensor) SetHorizonSpec(spec horizon.Spec) {
	s.KnowledgeHorizonFnc = spec.Fnc
	s.KnowledgeHorizonPar = spec.Par
}

// KnowledgeHorizon is the signed duration between when knowledge about the
// event starting at eventStart becomes available and eventStart itself.
func (s *Sensor) KnowledgeHorizon(eventStart time.Time) (time.Duration, error) {
	return horizon.Evaluate(s.KnowledgeHorizonFnc, s.KnowledgeHorizonPar, eventStart.UTC(), s.EventResolution)
}

func (s *Sensor) KnowledgeHorizonBounds(eventStart time.Time) (horizon.Bounds, error) {
	return horizon.EvaluateBounds(s.KnowledgeHorizonFnc, s.KnowledgeHorizonPar, eventStart.UTC(), s.EventResolution)
}

// KnowledgeTime is eventStart minus the knowledge horizon, in UTC.
func (s *Sensor) KnowledgeTime(eventStart time.Time) (time.Time, error) {
	h, err := s.KnowledgeHorizon(eventStart)
	if err != nil {
		return time.Time{}, err
	}
	return eventStart.UTC().Add(-h), nil
}

type sensorJSON struct {
	*sensorAlias
	EventResolution string `json:"event_resolution"`
}

type sensorAlias Sensor

func (s Sensor) MarshalJSON() ([]byte, error) {
	return json.Marshal(sensorJSON{
		sensorAlias:     (*sensorAlias)(&s),
		EventResolution: timecodec.FormatDuration(s.EventResolution),
	})
}

func (s *Sensor) UnmarshalJSON(data []byte) error {
	aux := sensorJSON{sensorAlias: (*sensorAlias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.EventResolution == "" {
		s.EventResolution = 0
		return nil
	}
	d, err := timecodec.ParseDuration(aux.EventResolution)
	if err != nil {
		return fmt.Errorf("event_resolution: %w", err)
	}
	s.EventResolution = d
	return nil
}
