// Package horizon evaluates knowledge horizons from a rule name and a
// parameter bag, typically as loaded from a persisted sensor record.
//
// Rule names are resolved against a closed table built at startup. A name
// that is not in the table is never executed; it fails verification.
package horizon

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Harshitk-cp/timely/internal/timecodec"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Evaluate computes the knowledge horizon for an event starting at eventStart.
// params may be encoded or hold native time values.
func Evaluate(name string, params timecodec.Bag, eventStart time.Time, eventResolution time.Duration) (time.Duration, error) {
	rule, in, err := prepare(name, params, eventStart, eventResolution)
	if err != nil {
		return 0, err
	}
	return rule.horizon(in)
}

// EvaluateBounds computes the uncertainty interval of the knowledge horizon.
// Rules that only produce a point value fail with ErrBoundsUnsupported.
func EvaluateBounds(name string, params timecodec.Bag, eventStart time.Time, eventResolution time.Duration) (Bounds, error) {
	rule, in, err := prepare(name, params, eventStart, eventResolution)
	if err != nil {
		return Bounds{}, err
	}
	if !rule.SupportsBounds() {
		return Bounds{}, &Error{Kind: ErrBoundsUnsupported, Rule: rule.Name()}
	}
	return rule.bounds(in)
}

func prepare(name string, params timecodec.Bag, eventStart time.Time, eventResolution time.Duration) (Rule, Input, error) {
	rule, decoded, err := verify(name, params)
	if err != nil {
		return nil, Input{}, err
	}

	if eventStart.IsZero() {
		return nil, Input{}, &Error{Kind: ErrNaiveTimestamp, Rule: rule.Name(), Param: "event_start"}
	}

	return rule, Input{
		EventStart:      eventStart.UTC(),
		EventResolution: eventResolution,
		Params:          decoded,
	}, nil
}

// verify resolves name and checks params against the rule's contract,
// returning the decoded bag. Nothing is executed before all checks pass.
func verify(name string, params timecodec.Bag) (Rule, timecodec.Bag, error) {
	e, ok := lookup(name)
	if !ok {
		return nil, nil, &Error{Kind: ErrVerificationFailed, Rule: name}
	}
	rule := e.rule

	kinds := make(map[string]timecodec.Kind, len(rule.Params()))
	for _, p := range rule.Params() {
		kinds[p.Name] = p.Kind
		if !p.Required {
			continue
		}
		if _, present := params[p.Name]; !present {
			return nil, nil, &Error{Kind: ErrMissingParameter, Rule: rule.Name(), Param: p.Name}
		}
	}

	encoded := timecodec.Encode(params)
	if err := validateParams(e.schema, encoded); err != nil {
		return nil, nil, &Error{Kind: ErrMalformedParameter, Rule: rule.Name(), Param: schemaParam(err), Err: err}
	}

	decoded, err := timecodec.DecodeTyped(encoded, kinds)
	if err != nil {
		var ke *timecodec.KeyError
		if errors.As(err, &ke) {
			return nil, nil, &Error{Kind: ErrMalformedParameter, Rule: rule.Name(), Param: ke.Key, Err: ke.Err}
		}
		return nil, nil, &Error{Kind: ErrMalformedParameter, Rule: rule.Name(), Err: err}
	}
	return rule, decoded, nil
}

// validateParams checks the encoded bag against the rule's schema. The bag is
// passed through encoding/json first so the validator only sees JSON types.
func validateParams(schema *jsonschema.Schema, encoded timecodec.Bag) error {
	raw, err := json.Marshal(encoded)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return schema.Validate(doc)
}

// schemaParam extracts the offending parameter name from a validation error.
func schemaParam(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return ""
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := strings.TrimPrefix(strings.TrimPrefix(ve.InstanceLocation, "#"), "/")
	if i := strings.IndexByte(loc, '/'); i >= 0 {
		loc = loc[:i]
	}
	return loc
}
