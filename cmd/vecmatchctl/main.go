// Command vecmatchctl drives a running vecmatch server from the shell.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/vecmatch/internal/version"
)

const defaultServer = "http://localhost:8080"

type rootOptions struct {
	server  string
	apiKey  string
	timeout time.Duration
	json    bool
}

func (o *rootOptions) client() *apiClient {
	return newAPIClient(o.server, o.apiKey, o.timeout)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "vecmatchctl",
		Short:         "Command line client for the vecmatch résumé/job matching service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("VECMATCH_URL")
	if server == "" {
		server = defaultServer
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.server, "server", server, "vecmatch base URL (env VECMATCH_URL)")
	flags.StringVar(&opts.apiKey, "api-key", os.Getenv("VECMATCH_API_KEY"), "bearer token (env VECMATCH_API_KEY)")
	flags.DurationVar(&opts.timeout, "timeout", 60*time.Second, "per-request timeout")
	flags.BoolVar(&opts.json, "json", false, "print raw JSON instead of tables")

	cmd.AddCommand(
		newVersionCommand(),
		newHealthCommand(opts),
		newCollectionsCommand(opts),
		newEmbedCommand(opts),
		newSearchCommand(opts),
		newFuzzyCommand(opts),
		newWeightedCommand(opts),
	)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "vecmatchctl "+version.String())
		},
	}
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		printError(cmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}
