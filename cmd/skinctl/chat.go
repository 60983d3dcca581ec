package main

import (
	"fmt"
	"strings"

	"go-skin-inspector/internal/container"

	"github.com/spf13/cobra"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <message...>",
		Short: "Ask the health assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildContainer(container.Options{})
			if err != nil {
				return err
			}
			defer c.Shutdown()

			resp := c.Chat().SendMessage(cmd.Context(), strings.Join(args, " "))
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			if resp.Error != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "(assistant unavailable: %s)\n", resp.Error)
			}
			return nil
		},
	}
}
