package horizon

import (
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

type entry struct {
	rule   Rule
	schema *jsonschema.Schema
}

// registry is built once during package initialization and only read after
// that, so lookups need no locking.
var registry = buildRegistry(
	constantRule{},
	exAnteRule{},
	exPostRule{},
	atDateRule{},
	calendarRule{},
)

// aliases lets records written under an older rule name keep resolving.
var aliases = map[string]string{
	"constant_timedelta": RuleConstant,
}

func buildRegistry(rules ...Rule) map[string]entry {
	table := make(map[string]entry, len(rules))
	for _, r := range rules {
		if _, dup := table[r.Name()]; dup {
			panic(fmt.Sprintf("horizon: duplicate rule %q", r.Name()))
		}
		table[r.Name()] = entry{rule: r, schema: compileSchema(r)}
	}
	return table
}

func compileSchema(r Rule) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	url := fmt.Sprintf("https://timely.schemas.local/horizon/%s.schema.json", r.Name())
	if err := c.AddResource(url, strings.NewReader(r.schema())); err != nil {
		panic(fmt.Sprintf("horizon: schema load for %q failed: %v", r.Name(), err))
	}
	compiled, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("horizon: schema compile for %q failed: %v", r.Name(), err))
	}
	return compiled
}

func lookup(name string) (entry, bool) {
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	e, ok := registry[name]
	return e, ok
}

// Resolve returns the registered rule called name. Unknown names fail with
// ErrVerificationFailed.
func Resolve(name string) (Rule, error) {
	e, ok := lookup(name)
	if !ok {
		return nil, &Error{Kind: ErrVerificationFailed, Rule: name}
	}
	return e.rule, nil
}

// Rules lists every registered rule, sorted by name.
func Rules() []Rule {
	out := make([]Rule, 0, len(registry))
	for _, e := range registry {
		out = append(out, e.rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
