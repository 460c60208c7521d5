package horizon

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
	_ "time/tzdata" // calendar rules must not depend on the host zoneinfo

	"github.com/Harshitk-cp/timely/internal/timecodec"
)

// Rule names as persisted in knowledge_horizon_fnc.
const (
	RuleConstant      = "constant"
	RuleExAnte        = "ex_ante"
	RuleExPost        = "ex_post"
	RuleAtDate        = "at_date"
	RuleXDaysAgoAtYOC = "x_days_ago_at_y_oclock"
)

// Param describes one entry of a rule's parameter contract.
type Param struct {
	Name     string         `json:"name"`
	Kind     timecodec.Kind `json:"kind"`
	Required bool           `json:"required"`
}

// Input is what a rule computes from. Params are already decoded and
// EventStart is in UTC.
type Input struct {
	EventStart      time.Time
	EventResolution time.Duration
	Params          timecodec.Bag
}

// Bounds is an uncertainty interval around a knowledge horizon. Lower <= Upper.
type Bounds struct {
	Lower time.Duration `json:"lower"`
	Upper time.Duration `json:"upper"`
}

// Rule is a knowledge horizon rule. The set of implementations is closed: the
// unexported methods keep other packages from adding variants, and the only
// way to obtain a Rule is Resolve.
type Rule interface {
	Name() string
	Description() string
	Params() []Param
	SupportsBounds() bool

	schema() string
	horizon(in Input) (time.Duration, error)
	bounds(in Input) (Bounds, error)
}

// constantRule: the horizon is a stored duration.
type constantRule struct{}

func (constantRule) Name() string { return RuleConstant }
func (constantRule) Description() string {
	return "fixed knowledge horizon, independent of the event"
}
func (constantRule) Params() []Param {
	return []Param{{Name: "knowledge_horizon", Kind: timecodec.KindDuration, Required: true}}
}
func (constantRule) SupportsBounds() bool { return false }
func (constantRule) schema() string {
	return `{
		"type": "object",
		"required": ["knowledge_horizon"],
		"properties": {"knowledge_horizon": {"type": "string"}}
	}`
}

func (r constantRule) horizon(in Input) (time.Duration, error) {
	return durationArg(r, in.Params, "knowledge_horizon", nil)
}

func (r constantRule) bounds(Input) (Bounds, error) {
	return Bounds{}, &Error{Kind: ErrBoundsUnsupported, Rule: r.Name()}
}

// exAnteRule: information is known a fixed lead time before the event starts.
type exAnteRule struct{}

func (exAnteRule) Name() string { return RuleExAnte }
func (exAnteRule) Description() string {
	return "known a fixed lead time before the event starts"
}
func (exAnteRule) Params() []Param {
	return []Param{{Name: "ex_ante_horizon", Kind: timecodec.KindDuration, Required: true}}
}
func (exAnteRule) SupportsBounds() bool { return true }
func (exAnteRule) schema() string {
	return `{
		"type": "object",
		"required": ["ex_ante_horizon"],
		"properties": {"ex_ante_horizon": {"type": "string"}}
	}`
}

func (r exAnteRule) horizon(in Input) (time.Duration, error) {
	return durationArg(r, in.Params, "ex_ante_horizon", nil)
}

func (r exAnteRule) bounds(in Input) (Bounds, error) {
	return pointBounds(r.horizon(in))
}

// exPostRule: information is known once the event has ended, optionally
// shifted by ex_post_horizon measured from the event end.
type exPostRule struct{}

func (exPostRule) Name() string { return RuleExPost }
func (exPostRule) Description() string {
	return "known once the event has ended"
}
func (exPostRule) Params() []Param {
	return []Param{{Name: "ex_post_horizon", Kind: timecodec.KindDuration, Required: false}}
}
func (exPostRule) SupportsBounds() bool { return true }
func (exPostRule) schema() string {
	return `{
		"type": "object",
		"properties": {"ex_post_horizon": {"type": "string"}}
	}`
}

func (r exPostRule) horizon(in Input) (time.Duration, error) {
	zero := time.Duration(0)
	h, err := durationArg(r, in.Params, "ex_post_horizon", &zero)
	if err != nil {
		return 0, err
	}
	return h - in.EventResolution, nil
}

func (r exPostRule) bounds(in Input) (Bounds, error) {
	return pointBounds(r.horizon(in))
}

// atDateRule: information becomes available at a fixed instant.
type atDateRule struct{}

func (atDateRule) Name() string { return RuleAtDate }
func (atDateRule) Description() string {
	return "known from a fixed instant onwards"
}
func (atDateRule) Params() []Param {
	return []Param{{Name: "knowledge_time", Kind: timecodec.KindTimestamp, Required: true}}
}
func (atDateRule) SupportsBounds() bool { return true }
func (atDateRule) schema() string {
	return `{
		"type": "object",
		"required": ["knowledge_time"],
		"properties": {"knowledge_time": {"type": "string"}}
	}`
}

func (r atDateRule) horizon(in Input) (time.Duration, error) {
	kt, ok := in.Params["knowledge_time"].(time.Time)
	if !ok {
		return 0, malformed(r, "knowledge_time", fmt.Errorf("expected a timestamp, got %T", in.Params["knowledge_time"]))
	}
	return in.EventStart.Sub(kt), nil
}

func (r atDateRule) bounds(in Input) (Bounds, error) {
	return pointBounds(r.horizon(in))
}

// calendarRule: information is known x days before the local calendar day of
// the event, at local clock time y in timezone z.
type calendarRule struct{}

func (calendarRule) Name() string { return RuleXDaysAgoAtYOC }
func (calendarRule) Description() string {
	return "known x days before the event's local calendar day, at y o'clock in timezone z"
}
func (calendarRule) Params() []Param {
	return []Param{
		{Name: "x", Kind: timecodec.KindInteger, Required: true},
		{Name: "y", Kind: timecodec.KindNumber, Required: true},
		{Name: "z", Kind: timecodec.KindString, Required: true},
	}
}
func (calendarRule) SupportsBounds() bool { return true }
func (calendarRule) schema() string {
	return `{
		"type": "object",
		"required": ["x", "y", "z"],
		"properties": {
			"x": {"type": "integer", "minimum": 0},
			"y": {"type": "number", "minimum": 0, "exclusiveMaximum": 24},
			"z": {"type": "string", "minLength": 1, "not": {"const": "Local"}}
		}
	}`
}

func (r calendarRule) args(p timecodec.Bag) (x int, y float64, loc *time.Location, err error) {
	x, ok := toInt(p["x"])
	if !ok {
		return 0, 0, nil, malformed(r, "x", fmt.Errorf("expected a whole number of days, got %v", p["x"]))
	}
	y, ok = toFloat(p["y"])
	if !ok {
		return 0, 0, nil, malformed(r, "y", fmt.Errorf("expected an hour of the day, got %v", p["y"]))
	}
	z, ok := p["z"].(string)
	if !ok {
		return 0, 0, nil, malformed(r, "z", fmt.Errorf("expected a timezone name, got %T", p["z"]))
	}
	loc, lerr := timecodec.LoadLocation(z)
	if lerr != nil {
		return 0, 0, nil, malformed(r, "z", lerr)
	}
	return x, y, loc, nil
}

func (r calendarRule) horizon(in Input) (time.Duration, error) {
	x, y, loc, err := r.args(in.Params)
	if err != nil {
		return 0, err
	}

	local := in.EventStart.In(loc)
	year, month, dayOfMonth := local.Date()
	seconds := int(math.Round(y * 3600))
	knowledgeTime := time.Date(year, month, dayOfMonth-x, 0, 0, seconds, 0, loc)

	return in.EventStart.Sub(knowledgeTime), nil
}

// The horizon grows with the event's time of day, so the bounds span a full
// day, widened by two hours on both sides for offset changes between the
// knowledge time and the event.
func (r calendarRule) bounds(in Input) (Bounds, error) {
	x, y, _, err := r.args(in.Params)
	if err != nil {
		return Bounds{}, err
	}

	base := time.Duration(x)*24*time.Hour - time.Duration(math.Round(y*3600))*time.Second
	return Bounds{
		Lower: base - 2*time.Hour,
		Upper: base + 26*time.Hour,
	}, nil
}

func pointBounds(h time.Duration, err error) (Bounds, error) {
	if err != nil {
		return Bounds{}, err
	}
	return Bounds{Lower: h, Upper: h}, nil
}

func durationArg(r Rule, p timecodec.Bag, name string, def *time.Duration) (time.Duration, error) {
	v, ok := p[name]
	if !ok {
		if def != nil {
			return *def, nil
		}
		return 0, &Error{Kind: ErrMissingParameter, Rule: r.Name(), Param: name}
	}
	d, ok := v.(time.Duration)
	if !ok {
		return 0, malformed(r, name, fmt.Errorf("expected a duration, got %T", v))
	}
	return d, nil
}

func malformed(r Rule, param string, err error) *Error {
	return &Error{Kind: ErrMalformedParameter, Rule: r.Name(), Param: param, Err: err}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
