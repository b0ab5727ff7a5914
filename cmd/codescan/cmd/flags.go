package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagBinding maps a viper configuration key to a command-line flag.
type flagBinding struct {
	key  string
	flag string
}

type commandBindings struct {
	persistent bool
	bindings   []flagBinding
}

// Bindings are applied when a command runs, not in init, so that commands
// sharing a key (image --format, pdf --format) do not overwrite each other.
var bindingRegistry = map[*cobra.Command][]commandBindings{}

func registerBindings(cmd *cobra.Command, persistent bool, bindings ...flagBinding) {
	bindingRegistry[cmd] = append(bindingRegistry[cmd], commandBindings{persistent: persistent, bindings: bindings})
}

// bindCommandFlags binds the flags of cmd and the persistent flags of its
// ancestors to the global viper instance.
func bindCommandFlags(cmd *cobra.Command) error {
	for c := cmd; c != nil; c = c.Parent() {
		for _, cb := range bindingRegistry[c] {
			if c != cmd && !cb.persistent {
				continue
			}
			set := c.Flags()
			if cb.persistent {
				set = c.PersistentFlags()
			}
			if err := bindFlagSet(set, cb.bindings); err != nil {
				return err
			}
		}
	}

	// --no-annotate inverts output.annotate.
	if f := cmd.Flags().Lookup("no-annotate"); f != nil && f.Changed {
		noAnnotate, _ := cmd.Flags().GetBool("no-annotate")
		viper.Set("output.annotate", !noAnnotate)
	}
	return nil
}

func bindFlagSet(set *pflag.FlagSet, bindings []flagBinding) error {
	for _, b := range bindings {
		f := set.Lookup(b.flag)
		if f == nil {
			return fmt.Errorf("flag --%s is not defined", b.flag)
		}
		if err := viper.BindPFlag(b.key, f); err != nil {
			return fmt.Errorf("bind flag --%s: %w", b.flag, err)
		}
	}
	return nil
}

// addEngineFlags defines the decoder selection flags shared by the scanning commands.
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().String("engine", "auto", "decoder engine: auto, local or cli")
	cmd.Flags().String("formats", "", "comma-separated barcode formats to look for (default: all)")
	cmd.Flags().Bool("try-harder", true, "spend more time looking for a symbol")
	cmd.Flags().Duration("engine-timeout", 0, "per-attempt timeout of the cli engine (e.g. 30s)")
	cmd.Flags().String("jar-dir", "", "directory holding the ZXing jars for the cli engine")
	cmd.Flags().Bool("use-docker", false, "run the cli engine in docker even when java is installed")

	registerBindings(cmd, false,
		flagBinding{"engine.name", "engine"},
		flagBinding{"engine.formats", "formats"},
		flagBinding{"engine.try_harder", "try-harder"},
		flagBinding{"engine.timeout", "engine-timeout"},
		flagBinding{"engine.jar_dir", "jar-dir"},
		flagBinding{"engine.use_docker", "use-docker"},
	)
}

// addOutputFlags defines artifact and result formatting flags.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "text", "result format: text, json or yaml")
	cmd.Flags().StringP("output-dir", "o", ".", "directory for the payload text file and annotated image")
	cmd.Flags().String("name", "code", "base name of the output artifacts")
	cmd.Flags().String("image-format", "png", "annotated image format: png, jpg, gif, bmp, tiff or webp")
	cmd.Flags().Bool("fields", false, "extract identifier, name and birth year from the payload")
	cmd.Flags().Bool("no-annotate", false, "skip writing the annotated image")
	cmd.Flags().Bool("progress", false, "print one line per orientation attempt to stderr")

	registerBindings(cmd, false,
		flagBinding{"output.format", "format"},
		flagBinding{"output.dir", "output-dir"},
		flagBinding{"output.name", "name"},
		flagBinding{"output.image_format", "image-format"},
		flagBinding{"output.fields", "fields"},
		flagBinding{"output.progress", "progress"},
	)
}
