// Package cli implements the erpkernel command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/erpkernel/internal/app"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"

	// newApp builds the application from the environment. Tests replace it.
	newApp func(ctx context.Context) (*app.App, error)
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{newApp: app.New}

	cmd := &cobra.Command{
		Use:   "erpkernel",
		Short: "Tenant mutation kernel for ERP/CRM records",
		Long: `erpkernel applies versioned, audited, idempotent mutations to
tenant-owned contacts, companies and invoices.

Storage, cache, policy and tracing are configured through the environment
(STORAGE_DRIVER, SQLITE_PATH, POSTGRES_*, REDIS_ADDR, POLICY_FILE, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewMutateCommand(opts))
	cmd.AddCommand(NewReadCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// withApp opens the application for the duration of fn.
func withApp(ctx context.Context, opts *RootOptions, fn func(a *app.App) error) error {
	a, err := opts.newApp(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialise", err)
	}
	defer a.Close(context.WithoutCancel(ctx))
	return fn(a)
}
