package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Harshitk-cp/timely/internal/horizon"
	"github.com/Harshitk-cp/timely/internal/timecodec"
	"gopkg.in/yaml.v3"
)

type specFlags struct {
	file string
	fnc  string
	par  string
}

// load builds a rule reference from --file or from --fnc and --par. The file
// is YAML, which also accepts JSON documents.
func (f specFlags) load() (horizon.Spec, error) {
	if f.file != "" && (f.fnc != "" || f.par != "") {
		return horizon.Spec{}, NewExitError(ExitCommandError, "--file cannot be combined with --fnc or --par")
	}

	if f.file != "" {
		data, err := os.ReadFile(f.file)
		if err != nil {
			return horizon.Spec{}, WrapExitError(ExitCommandError, "read spec file", err)
		}
		var spec horizon.Spec
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return horizon.Spec{}, WrapExitError(ExitCommandError, "parse spec file", err)
		}
		if spec.Fnc == "" {
			return horizon.Spec{}, NewExitError(ExitCommandError, fmt.Sprintf("%s: knowledge_horizon_fnc is required", f.file))
		}
		if spec.Par == nil {
			spec.Par = timecodec.Bag{}
		}
		return spec, nil
	}

	if f.fnc == "" {
		return horizon.Spec{}, NewExitError(ExitCommandError, "either --file or --fnc is required")
	}
	par := timecodec.Bag{}
	if f.par != "" {
		dec := json.NewDecoder(bytes.NewReader([]byte(f.par)))
		dec.UseNumber()
		if err := dec.Decode(&par); err != nil {
			return horizon.Spec{}, WrapExitError(ExitCommandError, "parse --par", err)
		}
	}
	return horizon.Spec{Fnc: f.fnc, Par: par}, nil
}
