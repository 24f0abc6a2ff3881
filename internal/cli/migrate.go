package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/erpkernel/internal/app"
	"github.com/yungbote/erpkernel/internal/data/db"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the kernel's tables and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), rootOpts, func(a *app.App) error {
				if err := db.AutoMigrateAll(a.DB); err != nil {
					return WrapExitError(ExitCommandError, "migration failed", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", a.Cfg.DB.Driver)
				return nil
			})
		},
	}
}
