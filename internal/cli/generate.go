package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/apiforge/schemagen/internal/artifact"
	"github.com/apiforge/schemagen/internal/emitter"
	"github.com/apiforge/schemagen/internal/emitter/barrelemitter"
	"github.com/apiforge/schemagen/internal/emitter/jsonemitter"
	"github.com/apiforge/schemagen/internal/emitter/oasemitter"
	"github.com/apiforge/schemagen/internal/emitter/tsemitter"
	"github.com/apiforge/schemagen/internal/notify"
	"github.com/apiforge/schemagen/internal/schema"
	"github.com/apiforge/schemagen/internal/sink"
	"github.com/apiforge/schemagen/internal/templates"
)

// EnvPrefix prefixes every environment variable read by generate.
const EnvPrefix = "SCHEMAGEN_"

// DotEnvFile is read from the project directory before the environment.
const DotEnvFile = ".env"

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, the environment, and CLI overrides.
type GenerateConfig struct {
	Dir        string `yaml:"dir" env:"DIR" validate:"required"`
	Root       string `yaml:"root" env:"ROOT" validate:"required,relpath"`
	Pattern    string `yaml:"pattern" env:"PATTERN" validate:"required"`
	SchemasDir string `yaml:"schemasDir" env:"SCHEMAS_DIR" validate:"required,excludesall=/\\"`
	Types      string `yaml:"types" env:"TYPES" validate:"required,relpath"`
	Namespace  string `yaml:"namespace" env:"NAMESPACE" validate:"required"`
	Templates  string `yaml:"templates" env:"TEMPLATES" validate:"omitempty,relpath"`
	OpenAPI    string `yaml:"openapi" env:"OPENAPI" validate:"omitempty,relpath"`
	DryRun     bool   `yaml:"dryRun" env:"DRY_RUN"`
	Check      bool   `yaml:"check" env:"CHECK" validate:"excluded_with=DryRun"`
	Verbose    bool   `yaml:"verbose" env:"VERBOSE"`
	NoColor    bool   `yaml:"noColor" env:"NO_COLOR"`
	ConfigPath string `yaml:"-"`

	// Out receives progress messages and the dry-run plan.
	Out io.Writer `yaml:"-"`
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		Dir:        ".",
		Root:       artifact.DefaultRoot,
		Pattern:    artifact.DefaultPattern,
		SchemasDir: artifact.DefaultSchemasDir,
		Types:      tsemitter.DefaultPath,
		Namespace:  tsemitter.DefaultNamespace,
	}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Regenerate type declarations, route schemas and barrels",
		Long: "Regenerate the TypeScript declaration file, every composite schema.json, and " +
			"the index.ts barrels from the parameter schema files of a project. " +
			"Options can be provided via flags, environment variables (" + EnvPrefix + "*), " +
			"a .env file, config files, or defaults.",
		Example: strings.TrimSpace(`  schemagen generate --dir ./api
  schemagen generate --root src/modules --types src/types/api.d.ts --dry-run
  schemagen --config schemagen.yaml generate --check`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			cfg.Out = cmd.OutOrStdout()
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("dir", "", "Project directory every other path is relative to (default \".\")")
	flags.String("root", "", "Directory holding one directory per resource (default \""+artifact.DefaultRoot+"\")")
	flags.String("pattern", "", "Glob matched below --root to find parameter schemas")
	flags.String("schemas-dir", "", "Per-resource directory holding the action directories (default \""+artifact.DefaultSchemasDir+"\")")
	flags.String("types", "", "Output path of the TypeScript declaration file (default \""+tsemitter.DefaultPath+"\")")
	flags.String("namespace", "", "Namespace the Request aliases reference (default \""+tsemitter.DefaultNamespace+"\")")
	flags.String("templates", "", "Directory with template overrides (<name>.template)")
	flags.String("openapi", "", "Also write an OpenAPI components document to this path (.yaml or .json)")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("check", false, "Fail when any generated file is out of date; writes nothing")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateEnv(cmd.Flags(), &cfg, os.Environ()); err != nil {
		return nil, err
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyGenerateEnv overlays SCHEMAGEN_* variables. Values from the process
// environment win over the project's .env file.
func applyGenerateEnv(flags *pflag.FlagSet, cfg *GenerateConfig, environ []string) error {
	vars := map[string]string{}

	dotenv, err := godotenv.Read(filepath.Join(projectDir(flags, cfg, environ), DotEnvFile))
	switch {
	case err == nil:
		for k, v := range dotenv {
			vars[k] = v
		}
	case !errors.Is(err, fs.ErrNotExist):
		return newUsageError(fmt.Sprintf("read %s: %v", DotEnvFile, err))
	}
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix, Environment: vars}); err != nil {
		return newUsageError(fmt.Sprintf("environment: %v", err))
	}
	return nil
}

// projectDir locates the .env file before the environment itself is parsed.
func projectDir(flags *pflag.FlagSet, cfg *GenerateConfig, environ []string) string {
	if flags.Changed("dir") {
		if v, err := flags.GetString("dir"); err == nil && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	for _, kv := range environ {
		if v, ok := strings.CutPrefix(kv, EnvPrefix+"DIR="); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		return "."
	}
	return cfg.Dir
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	for name, dst := range map[string]*string{
		"dir":         &cfg.Dir,
		"root":        &cfg.Root,
		"pattern":     &cfg.Pattern,
		"schemas-dir": &cfg.SchemasDir,
		"types":       &cfg.Types,
		"namespace":   &cfg.Namespace,
		"templates":   &cfg.Templates,
		"openapi":     &cfg.OpenAPI,
	} {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(value)
	}
	for name, dst := range map[string]*bool{
		"dry-run":  &cfg.DryRun,
		"check":    &cfg.Check,
		"verbose":  &cfg.Verbose,
		"no-color": &cfg.NoColor,
	} {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.Dir = strings.TrimSpace(c.Dir)
	if c.Dir == "" {
		c.Dir = "."
	}
	c.Dir = filepath.Clean(c.Dir)
	c.Root = cleanSlash(c.Root)
	c.Pattern = strings.TrimSpace(c.Pattern)
	c.SchemasDir = strings.TrimSpace(c.SchemasDir)
	c.Types = cleanSlash(c.Types)
	c.Namespace = strings.TrimSpace(c.Namespace)
	c.Templates = cleanSlash(c.Templates)
	c.OpenAPI = cleanSlash(c.OpenAPI)
}

func cleanSlash(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = path.Clean(filepath.ToSlash(p))
	return strings.TrimPrefix(p, "./")
}

var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("relpath", func(fl validator.FieldLevel) bool {
		return sink.ValidatePath(fl.Field().String()) == nil
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func (c *GenerateConfig) validate() error {
	if err := configValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describeFieldError(fe))
		}
		return newUsageError("generate: " + strings.Join(msgs, "\ngenerate: "))
	}
	if full := path.Join(c.Root, c.Pattern); !doublestar.ValidatePattern(full) {
		return newUsageError(fmt.Sprintf("generate: invalid pattern %q", full))
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required (set via flag, environment, or config file)", fe.Field())
	case "relpath":
		return fmt.Sprintf("%s must be a relative path inside the project directory, got %q", fe.Field(), fe.Value())
	case "excludesall":
		return fmt.Sprintf("%s must be a single directory name, got %q", fe.Field(), fe.Value())
	case "excluded_with":
		return "--check and --dry-run cannot be combined"
	default:
		return fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag())
	}
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	opts := []notify.Option{notify.WithVerbose(cfg.Verbose)}
	if cfg.NoColor {
		opts = append(opts, notify.WithColor(false))
	}
	n := notify.New(out, opts...)

	absDir := cfg.Dir
	if ap, err := filepath.Abs(cfg.Dir); err == nil {
		absDir = ap
	}
	fsys := os.DirFS(cfg.Dir)

	// 1) Templates are read once per run.
	tpl, err := templates.Load(fsys, cfg.Templates)
	if err != nil {
		return err
	}
	for _, name := range tpl.Overridden {
		n.Verbosef("Using %s template from %s (%d bytes)", name, cfg.Templates, len(tpl.Get(name)))
	}

	// 2) Discover and compile every parameter schema.
	tree, err := artifact.Build(ctx, fsys, artifact.Options{
		Root:       cfg.Root,
		Pattern:    cfg.Pattern,
		SchemasDir: cfg.SchemasDir,
		OnFile: func(loc artifact.Location) {
			n.Verbosef("Compiling %s (%s)", loc.Path, loc)
		},
	})
	if errors.Is(err, artifact.ErrNoSchemas) {
		n.Warn("No parameter schema files found. Ensure they follow this pattern '%s'.", path.Join(cfg.Root, cfg.Pattern))
		return nil
	}
	if err != nil {
		return describeError(err)
	}
	for _, loc := range tree.Skipped {
		n.Verbosef("Skipped %s: %s is already defined", loc.Path, loc)
	}
	n.Info("Artifacts tree built.")
	if n.Verbose() {
		if err := tree.Render(out, cfg.Root); err != nil {
			return err
		}
	}

	// 3) Emit into the filesystem, or into memory for dry runs and checks.
	var target sink.OutputSink = sink.NewFilesystemSink(cfg.Dir)
	mem := sink.NewMemorySink()
	emitNotifier := n
	if cfg.DryRun || cfg.Check {
		target = mem
		emitNotifier = notify.Discard()
	}

	res := &emitter.Result{}
	steps := []func() (*emitter.Result, error){
		func() (*emitter.Result, error) {
			return tsemitter.Emit(ctx, tree, tsemitter.Options{
				Sink: target, Templates: tpl, Path: cfg.Types, Namespace: cfg.Namespace, Notifier: emitNotifier,
			})
		},
		func() (*emitter.Result, error) {
			return jsonemitter.Emit(ctx, tree, jsonemitter.Options{
				FS: fsys, Sink: target, Templates: tpl, Notifier: emitNotifier,
			})
		},
		func() (*emitter.Result, error) {
			return barrelemitter.EmitExporters(ctx, tree, barrelemitter.Options{
				Sink: target, Templates: tpl, Notifier: emitNotifier,
			})
		},
		func() (*emitter.Result, error) {
			return barrelemitter.EmitEntries(ctx, tree, barrelemitter.Options{
				Sink: target, Templates: tpl, Notifier: emitNotifier,
			})
		},
	}
	if cfg.OpenAPI != "" {
		steps = append(steps, func() (*emitter.Result, error) {
			return oasemitter.Emit(ctx, tree, oasemitter.Options{
				Sink: target, Path: cfg.OpenAPI, Notifier: emitNotifier,
			})
		})
	}
	for _, step := range steps {
		r, err := step()
		if err != nil {
			return wrapOutputError(describeError(err), absDir)
		}
		res.Merge(r)
	}
	n.Verbosef("Rendered %d file writes.", len(res.Planned))

	switch {
	case cfg.Check:
		stale, err := mem.Diff(fsys)
		if err != nil {
			return err
		}
		if len(stale) > 0 {
			return staleError{paths: stale}
		}
		n.Success("All %d generated files are up to date.", len(mem.Paths()))
	case cfg.DryRun:
		paths := mem.Paths()
		printPlan(out, absDir, len(paths), paths)
	default:
		n.Success("Operation completed successfully!")
	}
	return nil
}

func printPlan(w io.Writer, dir string, count int, relPaths []string) {
	fmt.Fprintf(w, "Planned writes to %s (%d files):\n", dir, count)
	for _, p := range relPaths {
		fmt.Fprintf(w, "- %s\n", p)
	}
}

// describeError adds the offending file to schema and document errors.
func describeError(err error) error {
	var le *schema.LoadError
	if errors.As(err, &le) {
		return fmt.Errorf("invalid parameter schema (%s): %w\nLocation: %s", le.Code, err, le.Path)
	}
	var de *jsonemitter.DocumentError
	if errors.As(err, &de) {
		return fmt.Errorf("%w\nHint: fix or delete %s and run generate again", err, de.Path)
	}
	if errors.Is(err, artifact.ErrConvention) {
		return fmt.Errorf("%w\nHint: schema files live at <root>/<resource>/<schemas dir>/<action>/<kind>.schema.json", err)
	}
	return err
}

func wrapOutputError(err error, dir string) error {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: check the permissions of --dir or choose a different output path.", dir, msg))
	}
	return err
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", configPath, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", configPath, err))
	}

	strs := map[string]*string{
		"dir":        &cfg.Dir,
		"root":       &cfg.Root,
		"pattern":    &cfg.Pattern,
		"schemasdir": &cfg.SchemasDir,
		"types":      &cfg.Types,
		"namespace":  &cfg.Namespace,
		"templates":  &cfg.Templates,
		"openapi":    &cfg.OpenAPI,
	}
	bools := map[string]*bool{
		"dryrun":  &cfg.DryRun,
		"check":   &cfg.Check,
		"verbose": &cfg.Verbose,
		"nocolor": &cfg.NoColor,
	}

	for key, value := range raw {
		normalized := normalizeKey(key)
		if dst, ok := strs[normalized]; ok {
			str, err := valueAsString(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = str
			continue
		}
		if dst, ok := bools[normalized]; ok {
			val, err := valueAsBool(value)
			if err != nil {
				return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			*dst = val
			continue
		}
		return newUsageError(fmt.Sprintf("config file %q: unknown field %q", configPath, key))
	}

	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}
