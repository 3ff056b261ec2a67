package main

import (
	"github.com/spf13/cobra"

	"github.com/tonyjoanes/gopher-doctor/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the gopherdoctor configuration",
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Print the effective configuration with secrets redacted",
	Long: `Print the configuration gopherdoctor would use, after environment
overrides and defaults, as YAML. API keys, tokens and webhook URLs are
redacted. Exits non-zero if the configuration is invalid.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg.Default()
		out, err := config.Dump(cfg)
		if err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(out); err != nil {
			return err
		}
		return config.Validate(cfg)
	},
}

func init() {
	configCmd.AddCommand(configViewCmd)
}
