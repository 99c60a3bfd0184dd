// Package commands provides the nebula CLI.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version info (set at build time)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// NewRootCmd builds the nebula command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nebula",
		Short: "Talk to Epic Tech AI from the terminal",
		Long: `nebula is a command-line companion for the Epic Tech AI backend.

Examples:
  nebula ask "light up"                 One reply using local config
  nebula ask --offline 420              Fallback rules only, no API call
  echo "puff puff pass" | nebula ask    Read the message from stdin
  nebula chat --url ws://localhost:3000/ws`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(cmd.OutOrStdout(), "nebula %s (built %s)\n", Version, BuildTime)
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newChatCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	// A missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// readInput joins args, or reads stdin when there are none and it is piped
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return joinArgs(args), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return "", nil
		}
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func joinArgs(args []string) string {
	out := args[0]
	for _, a := range args[1:] {
		out += " " + a
	}
	return out
}
