package harness

import (
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

var (
	suiteFields    = []string{"name", "description", "tracer", "target", "strict_rules", "base_rules", "scenarios"}
	scenarioFields = []string{"id", "description", "arg", "expected_output", "max_duration", "rules", "inherit_rules"}
)

// DecodeSuiteCUE evaluates CUE suite text and decodes it. The value must be
// concrete, and unknown fields are rejected as in the YAML form.
//
// CUE lets a suite share rule lists without repeating them:
//
//	_defaults: ["NOSIG: SIGKILL,9"]
//	name:   "signals-hw"
//	target: ["./signals", "./killer"]
//	scenarios: [
//		{id: "0", expected_output: [1, 2, 25]},
//		{id: "9", inherit_rules: false, rules: [_defaults[0], "NOSIG: SIGHUP,1"]},
//	]
func DecodeSuiteCUE(data []byte, filename string) (*SuiteFile, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	if err := checkFields(v, "", suiteFields); err != nil {
		return nil, err
	}
	if scenarios := v.LookupPath(cue.ParsePath("scenarios")); scenarios.Exists() {
		list, err := scenarios.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for i := 0; list.Next(); i++ {
			if err := checkFields(list.Value(), fmt.Sprintf("scenarios[%d].", i), scenarioFields); err != nil {
				return nil, err
			}
		}
	}

	var sf SuiteFile
	if err := v.Decode(&sf); err != nil {
		return nil, formatCUEError(err)
	}
	return &sf, nil
}

// checkFields rejects regular fields outside allowed. Hidden and definition
// fields are not iterated, so helpers like _defaults stay legal.
func checkFields(v cue.Value, prefix string, allowed []string) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		label := iter.Label()
		if !slices.Contains(allowed, label) {
			return fmt.Errorf("%s: field %s%s not allowed", iter.Value().Pos(), prefix, label)
		}
	}
	return nil
}

// formatCUEError reduces a CUE error list to its first error, prefixed with
// the source position when CUE knows it.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return fmt.Errorf("%s: %s", positions[0], first.Error())
	}
	return first
}
