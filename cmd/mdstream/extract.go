package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riverfjs/mdstream"
)

type extractOutput struct {
	Markdown   string                `json:"markdown"`
	Components []extractedInvocation `json:"components"`
}

type extractedInvocation struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties"`
	Start      int            `json:"start"`
	End        int            `json:"end"`
	Partial    bool           `json:"partial,omitempty"`
}

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Replace component invocations with placeholders and print them as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			reg, err := loadRegistry(cfg.Registry)
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			var res mdstream.Result
			if cfg.Partial {
				res = mdstream.ExtractPartial(text, reg)
			} else {
				res = mdstream.Extract(text, reg, func(e mdstream.ComponentError) {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", e)
				})
			}

			out := extractOutput{Markdown: res.Markdown, Components: []extractedInvocation{}}
			for _, inv := range res.Components {
				out.Components = append(out.Components, extractedInvocation{
					ID:         inv.ID,
					Name:       inv.Name,
					Properties: inv.Properties,
					Start:      inv.Span.Start,
					End:        inv.Span.End,
					Partial:    inv.Partial,
				})
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(out)
		},
	}
	cmd.Flags().String("registry", "", "Component catalog (YAML)")
	cmd.Flags().Bool("partial", false, "Extract a trailing unterminated invocation instead")
	return cmd
}
