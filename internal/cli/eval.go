package cli

import (
	"fmt"

	"github.com/Harshitk-cp/timely/internal/timecodec"
	"github.com/spf13/cobra"
)

type evalResult struct {
	Fnc              string `json:"knowledge_horizon_fnc"`
	EventStart       string `json:"event_start"`
	EventResolution  string `json:"event_resolution"`
	KnowledgeHorizon string `json:"knowledge_horizon"`
	KnowledgeTime    string `json:"knowledge_time"`
	BoundsLower      string `json:"bounds_lower,omitempty"`
	BoundsUpper      string `json:"bounds_upper,omitempty"`
}

func (r evalResult) Lines() []string {
	lines := []string{
		fmt.Sprintf("rule:              %s", r.Fnc),
		fmt.Sprintf("event start:       %s", r.EventStart),
		fmt.Sprintf("event resolution:  %s", r.EventResolution),
		fmt.Sprintf("knowledge horizon: %s", r.KnowledgeHorizon),
		fmt.Sprintf("knowledge time:    %s", r.KnowledgeTime),
	}
	if r.BoundsLower != "" {
		lines = append(lines, fmt.Sprintf("bounds:            [%s, %s]", r.BoundsLower, r.BoundsUpper))
	}
	return lines
}

type evalOptions struct {
	spec       specFlags
	eventStart string
	resolution string
	bounds     bool
}

func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &evalOptions{}

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a knowledge horizon rule for one event",
		Example: `  timelyctl eval --fnc ex_ante --par '{"ex_ante_horizon":"PT2H"}' --event-start 2024-01-01T12:00:00Z
  timelyctl eval -f day_ahead.yaml --event-start 2024-01-05T15:00:00+01:00 --bounds`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runEval(opts)
			if err != nil {
				return err
			}
			return output{format: rootOpts.Format, w: cmd.OutOrStdout()}.write(res)
		},
	}

	cmd.Flags().StringVarP(&opts.spec.file, "file", "f", "", "YAML or JSON spec file")
	cmd.Flags().StringVar(&opts.spec.fnc, "fnc", "", "rule name")
	cmd.Flags().StringVar(&opts.spec.par, "par", "", "rule parameters as a JSON object")
	cmd.Flags().StringVar(&opts.eventStart, "event-start", "", "event start, RFC 3339 with offset (required)")
	cmd.Flags().StringVar(&opts.resolution, "resolution", "P0D", "event resolution, ISO 8601 duration")
	cmd.Flags().BoolVar(&opts.bounds, "bounds", false, "also print the uncertainty bounds")
	_ = cmd.MarkFlagRequired("event-start")

	return cmd
}

func runEval(opts *evalOptions) (evalResult, error) {
	spec, err := opts.spec.load()
	if err != nil {
		return evalResult{}, err
	}
	eventStart, err := timecodec.ParseTimestamp(opts.eventStart)
	if err != nil {
		return evalResult{}, WrapExitError(ExitCommandError, "invalid --event-start", err)
	}
	resolution, err := timecodec.ParseDuration(opts.resolution)
	if err != nil || resolution < 0 {
		return evalResult{}, NewExitError(ExitCommandError, fmt.Sprintf("invalid --resolution %q", opts.resolution))
	}

	h, err := spec.Evaluate(eventStart, resolution)
	if err != nil {
		return evalResult{}, WrapExitError(ExitFailure, "evaluation failed", err)
	}

	res := evalResult{
		Fnc:              spec.Fnc,
		EventStart:       timecodec.FormatTimestamp(eventStart),
		EventResolution:  timecodec.FormatDuration(resolution),
		KnowledgeHorizon: timecodec.FormatDuration(h),
		KnowledgeTime:    timecodec.FormatTimestamp(eventStart.UTC().Add(-h)),
	}
	if opts.bounds {
		b, err := spec.Bounds(eventStart, resolution)
		if err != nil {
			return evalResult{}, WrapExitError(ExitFailure, "bounds failed", err)
		}
		res.BoundsLower = timecodec.FormatDuration(b.Lower)
		res.BoundsUpper = timecodec.FormatDuration(b.Upper)
	}
	return res, nil
}

