package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/pgjwt"
)

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the module configuration",
	}
	cmd.AddCommand(newConfigCheckCmd(c))
	return cmd
}

func newConfigCheckCmd(c *cli) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate and lint a configuration file",
		Long: `Check loads the file the server module would load, applies PGJWT_* overrides, and
reports validation errors and lint findings. Without --file the PGJWT_CONFIG variable is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = os.Getenv(pgjwt.EnvConfigFile)
			}
			cfg, err := pgjwt.LoadConfig(file)
			if err != nil {
				return err
			}

			warnings := cfg.Lint()
			for _, w := range warnings {
				if _, err := fmt.Fprintf(c.out, "warning %s: %s\n", w.Code, w.Message); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintf(c.out, "configuration ok (%d warnings)\n", len(warnings))
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Configuration file (YAML)")
	return cmd
}
