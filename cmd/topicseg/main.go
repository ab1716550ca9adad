package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"topicseg/internal/config"
	"topicseg/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app holds the state shared by all subcommands after flag parsing.
type app struct {
	cfgPath  string
	logLevel string
	logJSON  bool

	cfg *config.AppConfig
	log logger.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "topicseg",
		Short: "Split text into labeled topics",
		Long: `topicseg chunks a document, embeds the chunks, groups them by density
and labels every group with its most distinctive terms.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "Path to YAML config file (default ./topicseg.yaml or ~/.config/topicseg/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.logJSON, "log-json", false, "Emit logs as JSON")

	root.AddCommand(
		newSegmentCommand(a),
		newBrowseCommand(a),
		newConfigCommand(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	// .env is optional; it only supplies API keys for remote embedders.
	_ = godotenv.Load()

	var err error
	if a.cfgPath == "" {
		a.cfg, a.cfgPath, err = config.LoadDefault()
	} else {
		a.cfg, err = config.Load(a.cfgPath)
	}
	if err != nil {
		return err
	}

	level := a.cfg.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	logger.SetupLogger(level, a.logJSON || a.cfg.Log.JSON)
	a.log = logger.GetDefault()
	if a.cfgPath != "" {
		a.log.Debug("loaded config", "path", a.cfgPath)
	}
	cmd.SetContext(logger.ContextWithLogger(cmd.Context(), a.log))
	return nil
}
