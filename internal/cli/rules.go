package cli

import (
	"fmt"
	"strings"

	"github.com/Harshitk-cp/timely/internal/horizon"
	"github.com/spf13/cobra"
)

type ruleInfo struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Params         []horizon.Param `json:"params"`
	SupportsBounds bool            `json:"supports_bounds"`
}

type rulesResult struct {
	Rules []ruleInfo `json:"rules"`
}

func (r rulesResult) Lines() []string {
	lines := make([]string, 0, len(r.Rules))
	for _, rule := range r.Rules {
		params := make([]string, 0, len(rule.Params))
		for _, p := range rule.Params {
			s := fmt.Sprintf("%s:%s", p.Name, p.Kind)
			if !p.Required {
				s += "?"
			}
			params = append(params, s)
		}
		lines = append(lines, fmt.Sprintf("%-24s %-40s %s", rule.Name, strings.Join(params, " "), rule.Description))
	}
	return lines
}

func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the registered knowledge horizon rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var res rulesResult
			for _, rule := range horizon.Rules() {
				res.Rules = append(res.Rules, ruleInfo{
					Name:           rule.Name(),
					Description:    rule.Description(),
					Params:         rule.Params(),
					SupportsBounds: rule.SupportsBounds(),
				})
			}
			return output{format: rootOpts.Format, w: cmd.OutOrStdout()}.write(res)
		},
	}
}
