package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apiforge/schemagen/internal/notify"
	"github.com/apiforge/schemagen/internal/sink"
)

// DefaultConfigFile is where init writes the sample config.
const DefaultConfigFile = "schemagen.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool
	NoColor    bool
	Out        io.Writer
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample schemagen configuration file",
		Long:  "Scaffold a commented schemagen configuration file that documents available options.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			noColor, err := cmd.Flags().GetBool("no-color")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath: out,
				Force:      force,
				Verbose:    verbose,
				NoColor:    noColor,
				Out:        cmd.OutOrStdout(),
			}
			return initRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("out", DefaultConfigFile, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = DefaultConfigFile
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	w := cfg.Out
	if w == nil {
		w = os.Stdout
	}
	opts := []notify.Option{notify.WithVerbose(cfg.Verbose)}
	if cfg.NoColor {
		opts = append(opts, notify.WithColor(false))
	}
	n := notify.New(w, opts...)

	content := strings.TrimSpace(sampleConfigYAML) + "\n"
	dst := sink.NewFilesystemSink(filepath.Dir(absPath))
	if err := dst.WriteFile(ctx, filepath.Base(absPath), []byte(content)); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write %s: %v\nHint: choose a different --out or check directory permissions.", absPath, err))
	}
	n.Verbosef("Wrote %d bytes", len(content))
	n.Success("Wrote sample config to %s", absPath)
	return nil
}

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# schemagen configuration (YAML)
# All fields are optional. Environment variables (SCHEMAGEN_ROOT, ...) and a
# .env file in the project directory override config values; command-line
# flags override everything.

# Project directory every other path is relative to.
# dir: .

# Directory holding one directory per resource.
# root: src/resources

# Glob matched below root to find parameter schema files.
# pattern: "**/schemas/**/{headers,params,querystring,body,response,response.*}.schema.json"

# Per-resource directory holding one directory per action.
# schemasDir: schemas

# Output path of the TypeScript declaration file.
# types: src/types/schemas.d.ts

# Namespace the generated Request aliases reference. Must match the
# namespaces opened by the typescript template.
# namespace: Api.Schemas

# Directory with template overrides: typescript.template, schema.template,
# entry.template, exporter.template. Missing files fall back to built-ins.
# templates: templates

# Also write an OpenAPI components document (.yaml or .json).
# openapi: docs/schemas.openapi.yaml

# Preview planned outputs without writing files.
# dryRun: false

# Fail when generated files are out of date, without writing.
# check: false

# Enable verbose logging.
# verbose: false

# Disable coloured output.
# noColor: false
`
