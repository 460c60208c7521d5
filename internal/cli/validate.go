package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type validateResult struct {
	Fnc   string `json:"knowledge_horizon_fnc"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func (r validateResult) Lines() []string {
	if r.Valid {
		return []string{fmt.Sprintf("%s: ok", r.Fnc)}
	}
	return []string{fmt.Sprintf("%s: %s", r.Fnc, r.Error)}
}

func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var flags specFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a rule reference without evaluating it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := flags.load()
			if err != nil {
				return err
			}

			res := validateResult{Fnc: spec.Fnc, Valid: true}
			verr := spec.Validate()
			if verr != nil {
				res.Valid = false
				res.Error = verr.Error()
			}
			if err := (output{format: rootOpts.Format, w: cmd.OutOrStdout()}).write(res); err != nil {
				return err
			}
			if verr != nil {
				return WrapExitError(ExitFailure, "invalid rule reference", verr)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "YAML or JSON spec file")
	cmd.Flags().StringVar(&flags.fnc, "fnc", "", "rule name")
	cmd.Flags().StringVar(&flags.par, "par", "", "rule parameters as a JSON object")

	return cmd
}
