package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-skin-inspector/internal/config"
	"go-skin-inspector/internal/container"
	"go-skin-inspector/internal/logger"

	"github.com/spf13/cobra"
)

// Version is the application version.
const Version = "1.0.0"

type rootOptions struct {
	verbose bool
	json    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "skinctl",
		Short:         "Skin condition reference, photo analysis and health chat",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetOutput(cmd.ErrOrStderr())
			if opts.verbose {
				logger.SetLevel("debug")
			} else {
				logger.SetLevel("warn")
			}
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print results as JSON")

	root.AddCommand(
		newConditionsCmd(opts),
		newAnalyzeCmd(opts),
		newChatCmd(opts),
		newServeCmd(),
	)
	return root
}

// buildContainer loads the configuration and wires the dependency graph.
// Log output keeps the level chosen by the root flags.
func buildContainer(opts container.Options) (*container.Container, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.LogLevel = logger.Logger.GetLevel().String()
	return container.NewContainer(cfg, opts)
}

func execute() int {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute())
}
