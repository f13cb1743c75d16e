package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/kr/pretty"
	"github.com/spf13/cobra"

	"github.com/CTAG07/markovtext/pkg/markov"
)

// CLI encapsulates the command-line interface with its dependencies.
type CLI struct {
	configPath string
	verbose    bool
	silent     bool
	config     *Config
	logger     *slog.Logger
	stderr     io.Writer
	rootCmd    *cobra.Command
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	c := &CLI{stderr: os.Stderr}
	c.setupCommands()
	return c
}

// setupCommands initializes all CLI commands and their configurations.
func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:           "markovtext",
		Short:         "Generate text from a bigram Markov chain",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initApp()
		},
	}

	c.rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to a JSON config file (created with defaults if missing)")
	c.rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")
	c.rootCmd.PersistentFlags().BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging")

	c.rootCmd.AddCommand(c.newGenerateCommand())
	c.rootCmd.AddCommand(c.newStatsCommand())
	c.rootCmd.AddCommand(c.newServeCommand())
	c.rootCmd.AddCommand(c.newHistoryCommand())
	c.rootCmd.AddCommand(c.newConfigCommand())
}

// Run executes the CLI with the given arguments and returns any error.
func (c *CLI) Run(ctx context.Context, args []string) error {
	c.rootCmd.SetArgs(args)
	return c.rootCmd.ExecuteContext(ctx)
}

// initApp loads the configuration and sets up logging.
func (c *CLI) initApp() error {
	config, err := LoadConfig(c.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	c.config = config

	level := parseLogLevel(config.Server.LogLevel)
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.silent {
		level = slog.Level(100)
	}
	c.logger = slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(c.logger)
	return nil
}

func (c *CLI) newGenerateCommand() *cobra.Command {
	var count, maxWords int
	var start string

	cmd := &cobra.Command{
		Use:   "generate <file>",
		Short: "Generate random text from a source file",
		Args:  cobra.ExactArgs(1),
		Example: `  # One sentence-ish run from a text file
  markovtext generate gettysburg.txt

  # Five runs, each capped at 40 words
  markovtext generate gettysburg.txt --count 5 --max-words 40

  # Start from a chosen pair of words
  markovtext generate gettysburg.txt --start "we are"

  # Compressed or HTML sources are decoded by extension
  markovtext generate corpus.txt.xz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("count") {
				count = c.config.Generation.Count
			}
			var opts []markov.GenerateOption
			// An explicit flag overrides generation_config.max_words, 0 included.
			if cmd.Flags().Changed("max-words") {
				if maxWords < 0 {
					return fmt.Errorf("--max-words must not be negative, got %d", maxWords)
				}
				opts = append(opts, markov.WithMaxWords(maxWords))
			}
			if cmd.Flags().Changed("start") {
				seed, err := markov.ParseStart(start)
				if err != nil {
					return fmt.Errorf("--start: %w", err)
				}
				opts = append(opts, markov.WithStart(seed))
			}

			app, err := NewApp(c.config, c.logger)
			if err != nil {
				return err
			}
			defer app.Close()

			chain, err := app.LoadChain(args[0])
			if err != nil {
				return err
			}
			walks, err := app.Generate(cmd.Context(), args[0], chain, count, opts...)
			if err != nil {
				if errors.Is(err, markov.ErrEmptyChain) {
					return fmt.Errorf("%s: source needs at least three words: %w", args[0], err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			for _, walk := range walks {
				if _, err = fmt.Fprintln(out, walk.String()); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of texts to generate (default from config)")
	cmd.Flags().IntVar(&maxWords, "max-words", 0, "Stop each text after this many words, overriding the config (0 = until the chain ends)")
	cmd.Flags().StringVar(&start, "start", "", "Two words to start from instead of a random pair")
	return cmd
}

func (c *CLI) newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file>",
		Short: "Show statistics of the chain built from a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(&Config{Server: c.config.Server, Generation: c.config.Generation, History: &HistoryConfig{}}, c.logger)
			if err != nil {
				return err
			}
			defer app.Close()

			chain, err := app.LoadChain(args[0])
			if err != nil {
				return err
			}
			stats := chain.Stats()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintf(tw, "keys\t%d\n", stats.Keys)
			_, _ = fmt.Fprintf(tw, "transitions\t%d\n", stats.Transitions)
			_, _ = fmt.Fprintf(tw, "vocabulary\t%d\n", stats.Vocabulary)
			_, _ = fmt.Fprintf(tw, "dead ends\t%d\n", stats.DeadEnds)
			_, _ = fmt.Fprintf(tw, "max branching\t%d\n", stats.MaxBranching)
			return tw.Flush()
		},
	}
}

func (c *CLI) newServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generation HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.config.Server.Addr = addr
			}
			app, err := NewApp(c.config, c.logger)
			if err != nil {
				return err
			}
			defer app.Close()

			api := NewAPI(app, c.config, c.logger)
			httpServer := &http.Server{
				Addr:              c.config.Server.Addr,
				Handler:           api.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errChan := make(chan error, 1)
			go func() {
				c.logger.Info("Starting api server", "address", httpServer.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errChan <- err
				}
				close(errChan)
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			select {
			case err = <-errChan:
				if err != nil {
					return fmt.Errorf("api server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
				c.logger.Info("OS signal received, initiating shutdown.")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err = httpServer.Shutdown(shutdownCtx); err != nil {
				c.logger.Error("Api server shutdown failed", "error", err)
			}
			c.logger.Info("HTTP server stopped.")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func (c *CLI) newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent generation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !c.config.History.Enabled {
				return errors.New("history is disabled; set history_config.enabled in the config file")
			}
			app, err := NewApp(c.config, c.logger)
			if err != nil {
				return err
			}
			defer app.Close()

			runs, err := app.history.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list history: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tWHEN\tSOURCE\tWORDS\tTEXT")
			for _, run := range runs {
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", run.ID, run.CreatedAt.Local().Format(time.DateTime), run.Source, run.WordCount, truncate(run.Output, 60))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

func (c *CLI) newConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := pretty.Fprintf(cmd.OutOrStdout(), "%# v\n", c.config)
			return err
		},
	}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
