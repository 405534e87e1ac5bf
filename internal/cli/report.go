package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chainguard-dev/malcontent-action/internal/render"
	"github.com/chainguard-dev/malcontent-action/internal/risk"
	"github.com/chainguard-dev/malcontent-action/internal/sarif"
	"github.com/chainguard-dev/malcontent-action/internal/scan"
)

// NewReportCmd runs the core pipeline over an existing scanner payload:
// no checkout, no scanner process, no transport. Useful for CI debugging
// and for re-rendering stored payloads.
func NewReportCmd() *cobra.Command {
	var format string
	var strict bool

	cmd := &cobra.Command{
		Use:   "report <payload.json>",
		Short: "Render a report from a saved scanner payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}

			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
			if strict {
				if err := scan.ValidatePayload(payload, scan.DefaultSchemaPath()); err != nil {
					return err
				}
			}

			d := scan.Normalize(payload)
			minLevel := risk.ParseLevel(app.RepoConfig.Report.MinLevel)

			out := cmd.OutOrStdout()
			switch format {
			case "markdown":
				fmt.Fprintln(out, render.Summary(d, render.Options{Extended: true, MinLevel: minLevel}))
			case "sarif":
				doc := sarif.Build(d, sarif.Options{ToolVersion: "unknown"})
				data, err := json.MarshalIndent(doc, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			case "json":
				data, err := json.MarshalIndent(d, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			default:
				fmt.Fprintln(out, render.Summary(d, render.Options{MinLevel: minLevel}))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "text|markdown|sarif|json")
	cmd.Flags().BoolVar(&strict, "strict", false, "Validate the payload against the scanner schema first")
	return cmd
}
