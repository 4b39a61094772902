package wizard

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed flows.cue
var defaultFlowsCUE []byte

// Flows maps a wizard mode to its ordered step list. Create and edit flows are
// data rather than code so each can carry its own sequence.
type Flows map[Mode][]Step

// DefaultFlows returns the embedded flow definitions.
func DefaultFlows() Flows {
	flows, err := ParseFlows(defaultFlowsCUE)
	if err != nil {
		panic(fmt.Sprintf("wizard: embedded flows.cue is invalid: %v", err))
	}
	return flows
}

// LoadFlows reads flow definitions from a CUE file. An empty path yields the defaults.
func LoadFlows(path string) (Flows, error) {
	if path == "" {
		return DefaultFlows(), nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading flows file: %w", err)
	}
	return ParseFlows(src)
}

// ParseFlows compiles and validates CUE flow definitions. Every flow must be a
// non-empty list of distinct known steps, and both create and edit must be defined.
func ParseFlows(src []byte) (Flows, error) {
	v := cuecontext.New().CompileBytes(src, cue.Filename("flows.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compiling flows: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validating flows: %w", err)
	}

	var raw map[string][]string
	if err := v.LookupPath(cue.ParsePath("flows")).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding flows: %w", err)
	}

	flows := make(Flows, len(raw))
	for name, steps := range raw {
		order := make([]Step, len(steps))
		for i, s := range steps {
			order[i] = Step(s)
		}
		if err := validateOrder(order); err != nil {
			return nil, fmt.Errorf("flow %q: %w", name, err)
		}
		flows[Mode(name)] = order
	}
	for _, mode := range []Mode{ModeCreate, ModeEdit} {
		if _, ok := flows[mode]; !ok {
			return nil, fmt.Errorf("flow %q is not defined", mode)
		}
	}
	return flows, nil
}

// Order returns a copy of the step list for mode.
func (f Flows) Order(mode Mode) ([]Step, error) {
	order, ok := f[mode]
	if !ok {
		return nil, fmt.Errorf("unknown wizard mode: %s", mode)
	}
	return append([]Step(nil), order...), nil
}
