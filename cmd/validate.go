package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateConfigCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Check the configuration without reading any input",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "configuration ok: radius=%gm window=%s workers=%d output=%s\n",
			cfg.Join.RadiusM, cfg.Join.Window, cfg.Join.Workers, cfg.Output.Format)
		return nil
	},
}
