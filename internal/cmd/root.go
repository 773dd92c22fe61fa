package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/strrl/llm-code/internal/ai"
	"github.com/strrl/llm-code/internal/cache"
	"github.com/strrl/llm-code/internal/config"
	"github.com/strrl/llm-code/internal/db"
	"github.com/strrl/llm-code/internal/output"
	"github.com/strrl/llm-code/internal/pipeline"
	"github.com/strrl/llm-code/internal/prompts"
	"github.com/strrl/llm-code/internal/templates"
)

// newChatClient is replaced in tests.
var newChatClient = func(cfg ai.Config) (pipeline.Chatter, error) {
	return ai.NewClient(cfg)
}

type rootOptions struct {
	inputs        []string
	noCache       bool
	model         string
	gpt4          bool
	copy          bool
	lineNumbers   bool
	verbose       bool
	listTemplates bool

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "llm-code [instructions...]",
		Short: "Coding assistant using OpenAI's chat models",
		Long: `llm-code sends your instructions, optionally with the contents of input
files, to an OpenAI chat model and prints the code block from the reply.

Requires OPENAI_API_KEY as an environment variable. Alternately, you can set it
in ~/.llm_code/env. Identical consecutive requests are answered from a local
cache in ~/.llm_code unless --no-cache is given.`,
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), opts.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, opts, args)
		},
	}

	cmd.SetVersionTemplate(versionString())
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: exitUsage, Err: err}
	})
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.Flags()
	flags.StringArrayVarP(&opts.inputs, "inputs", "i", nil, "Glob of input files (repeatable, supports **)")
	flags.BoolVar(&opts.noCache, "no-cache", false, "Don't answer from the cache")
	flags.StringVarP(&opts.model, "model", "m", "", "Model to use (overrides settings)")
	flags.BoolVar(&opts.gpt4, "gpt-4", false, "Use gpt-4")
	flags.BoolVarP(&opts.copy, "copy", "c", false, "Copy the code to the clipboard")
	flags.BoolVarP(&opts.lineNumbers, "line-numbers", "l", false, "Show line numbers")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&opts.listTemplates, "list-templates", false, "List the loaded templates and exit")

	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	return run(context.Background(), newRootCmd(), os.Args[1:])
}

func run(ctx context.Context, cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)

	var exitErr *ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr) && exitErr.Err == nil:
	default:
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}

	return exitCode(err)
}

func runRoot(cmd *cobra.Command, opts *rootOptions, args []string) error {
	ctx := cmd.Context()
	logger := opts.logger
	stdout := cmd.OutOrStdout()

	if opts.gpt4 && opts.model != "" {
		return usageError("--gpt-4 and --model are mutually exclusive")
	}

	instructions := strings.TrimSpace(strings.Join(args, " "))
	if instructions == "" && !opts.listTemplates {
		return usageError("please provide some instructions")
	}

	settings, err := config.Load()
	if err != nil {
		return configError(err)
	}
	logger.Debug("settings loaded", zap.String("config_dir", settings.ConfigDir), zap.String("model", settings.Model))

	library, err := loadTemplates(settings, logger)
	if err != nil {
		return configError(err)
	}
	if library.Len() == 0 {
		return configError(errors.New("no templates found"))
	}

	if opts.listTemplates {
		return listTemplates(stdout, library)
	}

	switch {
	case opts.gpt4:
		settings.Model = "gpt-4"
	case opts.model != "":
		settings.Model = opts.model
	}

	if err := settings.Validate(); err != nil {
		return configError(err)
	}

	files, err := readInputs(opts.inputs)
	if err != nil {
		return err
	}

	messages, err := pipeline.BuildRequest(files, instructions, library)
	if err != nil {
		return configError(err)
	}

	if err := os.MkdirAll(settings.ConfigDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	store, err := db.Open(settings.CachePath())
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := newChatClient(ai.Config{
		APIKey:  settings.OpenAIAPIKey,
		BaseURL: settings.BaseURL,
		Timeout: settings.Timeout,
	})
	if err != nil {
		return configError(err)
	}

	p := pipeline.New(client, cache.New(store, logger), logger)
	result, err := p.Execute(ctx, messages, pipeline.Settings{
		Model:       settings.Model,
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
	}, !opts.noCache)
	if err != nil {
		return err
	}

	printer := output.NewPrinter(stdout, opts.lineNumbers)

	code, ok := result.Message.Code()
	if !ok {
		if err := printer.PrintNoCode(result.Message); err != nil {
			return err
		}
		return &ExitError{Code: exitFailure}
	}

	if err := printer.PrintCode(code); err != nil {
		return err
	}

	if opts.copy {
		if err := output.Copy(code.Code); err != nil {
			logger.Warn("clipboard copy failed", zap.Error(err))
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
		}
	}

	return nil
}

// loadTemplates prefers the user's prompts directory and falls back to the
// built-in templates.
func loadTemplates(settings *config.Settings, logger *zap.Logger) (*templates.Library, error) {
	dir := settings.PromptsDir()
	if _, err := os.Stat(dir); err == nil {
		logger.Debug("loading templates", zap.String("dir", dir))
		return templates.LoadFromPath(dir)
	}

	logger.Debug("loading built-in templates")
	return prompts.Load()
}

func listTemplates(w io.Writer, library *templates.Library) error {
	for _, name := range library.Names() {
		t, err := library.Get(name)
		if err != nil {
			return err
		}
		slots := strings.Join(t.RequiredSlots(), ", ")
		if slots == "" {
			slots = "-"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", name, t.Role(), slots); err != nil {
			return err
		}
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	if w == os.Stderr {
		return cfg.Build()
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg.EncoderConfig),
		zapcore.AddSync(w),
		cfg.Level,
	)
	return zap.New(core), nil
}
