package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"epic-tech-ai/backend/internal/llm"
	"epic-tech-ai/backend/internal/reply"
	"epic-tech-ai/backend/pkg/config"
	"epic-tech-ai/backend/pkg/di"
	"epic-tech-ai/backend/pkg/logger"

	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	var (
		offline    bool
		showSource bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Print one reply for a message",
		Long: `Produces a single reply with the same logic the server uses: the
configured completion endpoint first, then the fallback rules. No typing
delay is applied.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			text = strings.TrimSpace(text)
			if text == "" {
				return errors.New("message is empty")
			}

			cfg := config.Load()

			logConfig := logger.DefaultConfig()
			logConfig.Level = "error"
			if verbose {
				logConfig.Level = "debug"
			}
			logConfig.JSON = false
			logConfig.Output = os.Stderr
			log := logger.New(logConfig)

			opts := reply.Options{
				Drawer: reply.NewDrawer(cfg.Reply.Seed),
				Logger: log,
			}
			if !offline {
				opts.Completer = llm.NewClient(di.LLMConfig(cfg), nil, log)
			}

			r := reply.NewService(opts).Reply(context.Background(), text)

			if showSource {
				fmt.Fprintf(cmd.OutOrStdout(), "%s [%s]\n", r.Text, r.Source)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), r.Text)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the completion endpoint and use the fallback rules")
	cmd.Flags().BoolVarP(&showSource, "source", "s", false, "Append where the reply came from")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Log completion attempts to stderr")

	return cmd
}
