package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/entrhq/notes-agent/pkg/agent"
	"github.com/entrhq/notes-agent/pkg/render"
)

// defaultRequest is asked when no request is given.
const defaultRequest = "What drink does Jake like?"

func newAskCmd(c *cli) *cobra.Command {
	var (
		path     string
		format   string
		maxSteps int
		stream   bool
	)

	cmd := &cobra.Command{
		Use:   "ask [request...]",
		Short: "Answer a request, saving or searching notes as needed",
		Long: `Runs one conversation: the model either answers directly or asks for
append_note / query_notes, whose results are fed back until it answers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			request := strings.TrimSpace(strings.Join(args, " "))
			if request == "" {
				request = defaultRequest
			}
			if path == "" {
				path = c.cfg.Notes.Path
			}
			if cmd.Flags().Changed("max-steps") {
				c.cfg.Agent.MaxSteps = maxSteps
			}

			renderer, err := c.renderer(cmd, format)
			if err != nil {
				return err
			}

			registry, err := newRegistry(c.cfg)
			if err != nil {
				return err
			}
			var extra []agent.LoopOption
			if stream {
				extra = append(extra, agent.WithEventHandler(renderer.StreamHandler()))
			}
			loop, err := newLoop(c.cfg, registry, extra...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cliLog.Infof("ask: path=%s request=%q max_steps=%d", path, request, loop.MaxSteps())
			state, runErr := loop.Run(ctx, agent.NewConversation(path, request))

			// Streamed pretty output already showed the conversation.
			if !(stream && renderer.Format() == render.FormatPretty) {
				if err := renderer.Render(render.NewTranscript(state, runErr)); err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Notes directory (default from config)")
	cmd.Flags().StringVarP(&format, "format", "f", string(render.FormatPretty), "Output format: pretty, json or yaml")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "Maximum reasoning steps, 0 for no limit (default from config)")
	cmd.Flags().BoolVar(&stream, "stream", false, "Print assistant output as it arrives")
	return cmd
}
