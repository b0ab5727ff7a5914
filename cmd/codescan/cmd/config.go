package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/codescan/internal/config"
	"github.com/MeKo-Tech/codescan/internal/pipeline"
)

// configCmd groups configuration helpers.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage codescan configuration",
	Long: `Manage codescan configuration.

Configuration is read from codescan.yaml in ., $HOME, $HOME/.config/codescan
and /etc/codescan. Environment variables prefixed with CODESCAN_ override file
values, and flags override both.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		force, _ := cmd.Flags().GetBool("force")

		path, err := config.GenerateDefaultConfigFile(output, force)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
		return err
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		format, _ := cmd.Flags().GetString("format")

		var (
			out string
			err error
		)
		if format == "json" {
			out, err = pipeline.ToJSON(cfg)
		} else {
			var b []byte
			b, err = config.MarshalYAML(*cfg)
			out = string(b)
		}
		if err != nil {
			return err
		}
		if used := GetConfigLoader().GetConfigFileUsed(); used != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "# loaded from %s\n", used)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().StringP("output", "o", config.ConfigFileName+".yaml", "path of the configuration file to write")
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
	configShowCmd.Flags().StringP("format", "f", "yaml", "output format: yaml or json")
}
