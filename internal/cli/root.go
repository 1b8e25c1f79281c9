// Package cli implements the pizzamock command.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the pizzamock command with the process' arguments.
func Execute(ctx context.Context) error {
	return NewRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// NewRootCmd returns the root command, its output is written to stdout and
// its logs to stderr.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "pizzamock",
		Short:         "Scripted backend for the pizza storefront's end-to-end tests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringP("config", "c", "", "config file (default ./pizzamock.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, or error")

	root.AddCommand(newServeCmd())
	root.AddCommand(newCheckCmd())
	return root
}

// flagOverrides returns the config overrides of the flags that were set on
// the command line, keyed by the config key they map to.
func flagOverrides(cmd *cobra.Command, keys map[string]string) map[string]any {
	m := map[string]any{}
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		switch f.Value.Type() {
		case "bool":
			v, _ := cmd.Flags().GetBool(flag)
			m[key] = v
		default:
			m[key] = f.Value.String()
		}
	}
	return m
}
