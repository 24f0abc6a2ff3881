package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/erpkernel/internal/app"
	"github.com/yungbote/erpkernel/internal/domain/mutation"
	"github.com/yungbote/erpkernel/internal/kernel"
)

// IdentityOptions selects the MutationContext for a command.
type IdentityOptions struct {
	Token string
}

func (o *IdentityOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Token, "token", "", "bearer token (default $ERPKERNEL_TOKEN)")
}

func (o *IdentityOptions) context(a *app.App) (kernel.MutationContext, error) {
	tok := strings.TrimSpace(o.Token)
	if tok == "" {
		tok = strings.TrimSpace(os.Getenv("ERPKERNEL_TOKEN"))
	}
	if tok == "" {
		return kernel.MutationContext{}, NewExitError(ExitCommandError, "a token is required (--token or ERPKERNEL_TOKEN)")
	}
	mc, err := a.ContextFromToken(tok)
	if err != nil {
		return kernel.MutationContext{}, WrapExitError(ExitCommandError, "token rejected", err)
	}
	return mc, nil
}

type MutateOptions struct {
	*RootOptions
	IdentityOptions
	ID             string
	Version        int64
	Input          string
	IdempotencyKey string
}

func NewMutateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MutateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mutate <namespace.verb>",
		Short: "Apply one create, update, delete or restore",
		Long: `Apply one mutation through the kernel and print its receipt.

Examples:
  erpkernel mutate contacts.create --input '{"name":"Ada"}' --idempotency-key k1
  erpkernel mutate contacts.update --id <id> --version 1 --input '{"name":"Ada L."}'
  erpkernel mutate contacts.delete --id <id> --version 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := opts.spec(args[0], cmd.Flags().Changed("version"))
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), rootOpts, func(a *app.App) error {
				mc, err := opts.context(a)
				if err != nil {
					return err
				}
				r := kernel.Mutate(cmd.Context(), mc, spec)
				if err := writeReceipt(cmd.OutOrStdout(), opts.Format, r); err != nil {
					return err
				}
				if !r.Applied() {
					return NewExitError(ExitRejected, fmt.Sprintf("mutation rejected: %s", r.ErrorCode))
				}
				return nil
			})
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.ID, "id", "", "entity id (update, delete, restore)")
	cmd.Flags().Int64Var(&opts.Version, "version", 0, "expected entity version (update, delete, restore)")
	cmd.Flags().StringVar(&opts.Input, "input", "{}", "mutation input as a JSON object")
	cmd.Flags().StringVar(&opts.IdempotencyKey, "idempotency-key", "", "idempotency key (create)")

	return cmd
}

// spec builds the mutation from flags. The entity type is taken from the
// action's namespace.
func (o *MutateOptions) spec(actionType string, versionSet bool) (mutation.Spec, error) {
	var input map[string]any
	if err := mutation.DecodeJSON([]byte(o.Input), &input); err != nil {
		return mutation.Spec{}, WrapExitError(ExitCommandError, "invalid --input JSON", err)
	}
	ns, _, _ := strings.Cut(actionType, ".")
	spec := mutation.Spec{
		ActionType:     actionType,
		EntityRef:      mutation.EntityRef{Type: mutation.Namespace(ns), ID: o.ID},
		Input:          input,
		IdempotencyKey: o.IdempotencyKey,
	}
	if versionSet {
		spec.ExpectedVersion = mutation.Version(o.Version)
	}
	return spec, nil
}
