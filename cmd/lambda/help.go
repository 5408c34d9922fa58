package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thomasrohde/lambda/pkg/help"
)

func (a *app) helpCmd() *cobra.Command {
	var operators bool
	cmd := &cobra.Command{
		Use:   "help [topic]",
		Short: "Show the quick reference or a help topic",
		Args:  cobra.MaximumNArgs(1),
		// Help works even when the config is broken.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			if operators {
				fmt.Fprint(a.stdout, help.OperatorIndex())
				return nil
			}
			if len(args) == 0 {
				fmt.Fprint(a.stdout, help.QUICKREF)
				return nil
			}
			_, content, err := help.MatchTopic(args[0])
			if err != nil {
				fmt.Fprintf(a.stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
				return &exitError{code: 1}
			}
			fmt.Fprint(a.stdout, content)
			return nil
		},
	}
	cmd.Flags().BoolVar(&operators, "operators", false, "list every operator")
	return cmd
}
