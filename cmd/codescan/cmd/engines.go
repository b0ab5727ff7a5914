package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/codescan/internal/engine"
	"github.com/MeKo-Tech/codescan/internal/pipeline"
)

// engineAvailability is replaced in tests so the host is never inspected.
var engineAvailability = engine.Availability

// enginesCmd represents the engines command.
var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "Show which decoder engines can run on this host",
	Long: `Check the decoder engines and report whether each one can run here.

The local engine is always available. The cli engine needs the ZXing jars
in engine.jar_dir plus either Docker or a Java runtime on PATH.

Examples:
  codescan engines
  codescan engines --jar-dir /opt/zxing --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		engCfg, err := cfg.ToEngineConfig()
		if err != nil {
			return fmt.Errorf("invalid engine configuration: %w", err)
		}

		statuses := engineAvailability(engCfg)
		format := strings.ToLower(cfg.Output.Format)
		if format == "" || format == "text" {
			return writeEngineTable(cmd.OutOrStdout(), statuses)
		}

		out, err := pipeline.Format(statuses, format)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
		return err
	},
}

func writeEngineTable(w io.Writer, statuses []engine.Status) error {
	for _, st := range statuses {
		state := "available"
		if !st.Available {
			state = "unavailable"
		}
		line := fmt.Sprintf("%-6s %s", st.Name, state)
		if len(st.Runners) > 0 {
			line += " (runners: " + strings.Join(st.Runners, ", ") + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		fmt.Fprintf(w, "       formats: %s\n", strings.Join(st.Formats, ", "))
		if st.Reason != "" {
			fmt.Fprintf(w, "       reason:  %s\n", st.Reason)
		}
		if st.Remedy != "" {
			fmt.Fprintf(w, "       remedy:  %s\n", st.Remedy)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(enginesCmd)
	enginesCmd.Flags().String("jar-dir", "", "directory holding the ZXing jars for the cli engine")
	enginesCmd.Flags().Bool("use-docker", false, "prefer docker over java for the cli engine")
	enginesCmd.Flags().StringP("format", "f", "text", "output format: text, json or yaml")

	registerBindings(enginesCmd, false,
		flagBinding{"engine.jar_dir", "jar-dir"},
		flagBinding{"engine.use_docker", "use-docker"},
		flagBinding{"output.format", "format"},
	)
}
