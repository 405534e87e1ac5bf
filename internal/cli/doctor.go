package cli

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/chainguard-dev/malcontent-action/internal/scan"
)

func NewDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check dependencies and configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			fmt.Fprintln(cmd.OutOrStdout(), "malcontent-action doctor")

			if _, err := exec.LookPath("git"); err != nil {
				return fmt.Errorf("git not found in PATH")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "- git: ok")

			if app.Config.Scanner.UseDocker {
				if _, err := exec.LookPath("docker"); err != nil {
					return fmt.Errorf("docker not found in PATH (scanner.use_docker is set)")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "- docker: ok")
			} else {
				if _, err := exec.LookPath(app.Config.Scanner.Command); err != nil {
					return fmt.Errorf("scanner not found: %s", app.Config.Scanner.Command)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "- scanner: ok")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "- scanner version: %s\n", app.Scanner.Version(ctx))

			if err := app.GH.CheckInstalled(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "- gh: ok")
			if err := app.GH.AuthStatus(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "- gh auth: ok")

			if err := scan.CheckSchema(scan.DefaultSchemaPath()); err != nil {
				fmt.Fprintf(cmd.OutOrStderr(), "- payload schema: failed\n%v\n", err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "- payload schema: ok")

			fmt.Fprintln(cmd.OutOrStdout(), "doctor checks passed")
			return nil
		},
	}
	return cmd
}
