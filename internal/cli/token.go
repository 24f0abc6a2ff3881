package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/erpkernel/internal/app"
	"github.com/yungbote/erpkernel/internal/auth"
)

type TokenOptions struct {
	*RootOptions
	Subject string
	OrgID   string
	Roles   []string
	TTL     time.Duration
}

func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token for an actor in one tenant",
		Long: `Issue an HS256 token signed with JWT_SECRET_KEY.

Example:
  erpkernel token --sub user-1 --org acme --role sales --ttl 8h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.LoadConfig(nil)
			ttl := opts.TTL
			if ttl == 0 {
				ttl = cfg.AccessTokenTTL
			}
			tok, err := auth.IssueToken(cfg.JWTSecretKey, opts.Subject, opts.OrgID, opts.Roles, ttl)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to issue token", err)
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"token": tok, "expiresIn": ttl.String()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Subject, "sub", "", "actor id")
	cmd.Flags().StringVar(&opts.OrgID, "org", "", "tenant id")
	cmd.Flags().StringSliceVar(&opts.Roles, "role", nil, "actor role (repeatable)")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 0, "token lifetime (default ACCESS_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("sub")
	_ = cmd.MarkFlagRequired("org")

	return cmd
}
