package horizon

import (
	"time"

	"github.com/Harshitk-cp/timely/internal/timecodec"
)

// Spec is a rule reference in its persisted shape: a rule name and an
// encoded parameter bag.
type Spec struct {
	Fnc string        `json:"knowledge_horizon_fnc" yaml:"knowledge_horizon_fnc"`
	Par timecodec.Bag `json:"knowledge_horizon_par" yaml:"knowledge_horizon_par"`
}

// NewConstantSpec stores d under the constant rule.
func NewConstantSpec(d time.Duration) Spec {
	return Spec{
		Fnc: RuleConstant,
		Par: timecodec.Bag{"knowledge_horizon": timecodec.FormatDuration(d)},
	}
}

// NewRuleSpec verifies name and params against the registry and encodes
// params.
func NewRuleSpec(name string, params timecodec.Bag) (Spec, error) {
	rule, err := Resolve(name)
	if err != nil {
		return Spec{}, err
	}
	spec := Spec{Fnc: rule.Name(), Par: timecodec.Encode(params)}
	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

func (s Spec) Evaluate(eventStart time.Time, eventResolution time.Duration) (time.Duration, error) {
	return Evaluate(s.Fnc, s.Par, eventStart, eventResolution)
}

func (s Spec) Bounds(eventStart time.Time, eventResolution time.Duration) (Bounds, error) {
	return EvaluateBounds(s.Fnc, s.Par, eventStart, eventResolution)
}

// Validate checks the rule name and parameters without evaluating anything.
func (s Spec) Validate() error {
	_, _, err := verify(s.Fnc, s.Par)
	return err
}
