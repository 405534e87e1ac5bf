package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var configPath string
	var debug bool

	root := &cobra.Command{
		Use:           "malcontent-action",
		Short:         "Report behavioral risk changes between two revisions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app, err := initApp(configPath, debug)
			if err != nil {
				return err
			}
			cmd.SetContext(withApp(context.Background(), app))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Override config path")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	root.AddCommand(NewDiffCmd())
	root.AddCommand(NewReportCmd())
	root.AddCommand(NewBrowseCmd())
	root.AddCommand(NewDoctorCmd())

	return root
}
