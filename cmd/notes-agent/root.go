package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/entrhq/notes-agent/pkg/config"
	"github.com/entrhq/notes-agent/pkg/logging"
	"github.com/entrhq/notes-agent/pkg/render"
)

const version = "0.1.0"

// cli holds state shared by all subcommands of one invocation.
type cli struct {
	configPath string
	logLevel   string
	noColor    bool
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:           "notes-agent",
		Short:         "An assistant that saves and recalls notes",
		Long:          `notes-agent answers a request with an LLM that can append notes to a notes file and search it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logging.Close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to a config file (default ./notes-agent.yaml or ~/.config/notes-agent/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "Disable styled output")

	rootCmd.AddCommand(
		newAskCmd(c),
		newNotesCmd(c),
		newServeCmd(c),
		newMCPCmd(c),
	)
	return rootCmd
}

// setup loads configuration and points the session log at its directory.
func (c *cli) setup() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	c.cfg = cfg

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	if err := logging.Configure(logging.Options{Dir: cfg.Log.Dir, Level: level}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging to stderr: %v\n", err)
		return nil
	}
	cliLog.Debugf("session %s logging to %s", logging.GetSessionID(), logging.LogPath())
	return nil
}

// renderer builds the output renderer for a --format value.
func (c *cli) renderer(cmd *cobra.Command, format string) (*render.Renderer, error) {
	f, err := render.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	var opts []render.Option
	if c.noColor {
		opts = append(opts, render.WithColor(false))
	}
	return render.NewRenderer(cmd.OutOrStdout(), f, opts...), nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", filepath.Base(os.Args[0]), err)
		os.Exit(1)
	}
}
