// Package main is the medqa CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/medqa/internal/cli"
	"github.com/hyperjump/medqa/internal/config"
	"github.com/hyperjump/medqa/internal/server"
	"github.com/hyperjump/medqa/internal/tui"
	"github.com/hyperjump/medqa/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "config.yaml"

type rootOptions struct {
	configPath string
	debug      bool
	logFile    string
}

// loadConfig loads config from path. A missing file at the default path falls back to
// config.Default() so a fresh checkout runs without any setup.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && path == defaultConfigPath {
		return config.Default(), "", nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// A missing .env is fine; the key may already be in the environment.
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "medqa",
		Short: "Question answering over a folder of medical documents",
		Long: `medqa answers questions using only the content of a local document corpus.

Documents are split into chunks, embedded and indexed at startup. Each question
retrieves the closest chunks and asks a hosted language model to answer from them,
or to say "I don't know." when they do not contain the answer.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "config file path")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "write logs to this file instead of stderr")

	root.AddCommand(
		newServeCmd(opts),
		newChatCmd(opts),
		newAskCmd(opts),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// setup loads config, builds the logger and runs the startup phase.
func setup(ctx context.Context, opts *rootOptions, logFile string) (*Components, *zap.Logger, error) {
	cfg, resolvedConfigPath, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || opts.debug
	logger, err := utils.NewLogger(debugMode, logFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		_ = logger.Sync()
		return nil, nil, err
	}
	return components, logger, nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			components, logger, err := setup(cmd.Context(), opts, opts.logFile)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer components.Close()

			srv := server.NewServer(components.Assistant, components.Status(), &components.Config.Server, logger)
			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			select {
			case <-sigChan:
			case err := <-errCh:
				return fmt.Errorf("server failed: %w", err)
			}

			logger.Info("Shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Stop(ctx)
		},
	}
}

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat in the terminal",
		Long: `Start an interactive chat in the terminal.

Controls:
  Enter   - Ask the question
  Ctrl+S  - Show or hide the sources of the last answer
  Esc     - Quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Logs go to a file (or nowhere) so they do not draw over the chat.
			logFile := opts.logFile
			if logFile == "" {
				logFile = os.DevNull
			}
			components, logger, err := setup(cmd.Context(), opts, logFile)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer components.Close()

			status := components.Status()
			summary := fmt.Sprintf("%d chunks indexed, model %s", status.IndexSize, status.LLMModel)
			return tui.Run(cmd.Context(), components.Assistant, summary, components.Config.Display.SourcePreviewChars)
		},
	}
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	var outputFormat string
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question and exit",
		Long: `Answer a single question and exit.

The question is all remaining arguments joined by spaces, so quoting is optional.

Examples:
  medqa ask What reduces fever?
  medqa ask --format json "What is the dose of ibuprofen for adults?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(outputFormat)
			if err != nil {
				return err
			}
			components, logger, err := setup(cmd.Context(), opts, opts.logFile)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer components.Close()

			question := strings.TrimSpace(strings.Join(args, " "))
			res, err := components.Assistant.Answer(cmd.Context(), question)
			if err != nil {
				if werr := cli.WriteFailure(cmd.OutOrStdout(), err, format); werr != nil {
					return werr
				}
				return err
			}
			return cli.WriteAnswer(cmd.OutOrStdout(), res, format, components.Config.Display.SourcePreviewChars)
		},
	}
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format: text or json")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file with every default filled in",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			cmd.Printf("Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("medqa version %s\n", version)
		},
	}
}
