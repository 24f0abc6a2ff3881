package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/erpkernel/internal/app"
	"github.com/yungbote/erpkernel/internal/domain/mutation"
	"github.com/yungbote/erpkernel/internal/kernel"
)

type ReadOptions struct {
	*RootOptions
	IdentityOptions
}

func NewReadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "read <namespace> <id>",
		Short: "Print one entity, including soft-deleted ones",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), rootOpts, func(a *app.App) error {
				mc, err := opts.context(a)
				if err != nil {
					return err
				}
				ref := mutation.EntityRef{Type: mutation.Namespace(args[0]), ID: args[1]}
				snap, found, err := kernel.ReadEntity(cmd.Context(), mc, ref)
				if err != nil {
					return WrapExitError(ExitCommandError, "read failed", err)
				}
				if !found {
					return NewExitError(ExitRejected, fmt.Sprintf("%s %s not found", ref.Type, ref.ID))
				}
				return writeSnapshot(cmd.OutOrStdout(), opts.Format, snap)
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

type ListOptions struct {
	*RootOptions
	IdentityOptions
	Where          []string
	IncludeDeleted bool
	After          string
	Limit          int
}

func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list <namespace>",
		Short: "Page through one namespace in creation order",
		Long: `Page through one namespace in creation order.

Example:
  erpkernel list invoices --where status=sent --where currency=EUR --limit 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.filter()
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), rootOpts, func(a *app.App) error {
				mc, err := opts.context(a)
				if err != nil {
					return err
				}
				res, err := kernel.ListEntities(cmd.Context(), mc, mutation.Namespace(args[0]), filter,
					mutation.Pagination{After: opts.After, Limit: opts.Limit})
				if err != nil {
					return WrapExitError(ExitCommandError, "list failed", err)
				}
				return writeList(cmd.OutOrStdout(), opts.Format, res)
			})
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "equality filter field=value (repeatable); value may be JSON")
	cmd.Flags().BoolVar(&opts.IncludeDeleted, "include-deleted", false, "include soft-deleted entities")
	cmd.Flags().StringVar(&opts.After, "after", "", "cursor from the previous page")
	cmd.Flags().IntVar(&opts.Limit, "limit", mutation.DefaultListLimit, "page size")

	return cmd
}

func (o *ListOptions) filter() (mutation.ListFilter, error) {
	f := mutation.ListFilter{IncludeDeleted: o.IncludeDeleted}
	for _, w := range o.Where {
		key, raw, ok := strings.Cut(w, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return f, NewExitError(ExitCommandError, fmt.Sprintf("invalid --where %q: want field=value", w))
		}
		if f.Equals == nil {
			f.Equals = map[string]any{}
		}
		f.Equals[key] = parseFilterValue(raw)
	}
	return f, nil
}

// parseFilterValue reads JSON scalars; anything else is a plain string.
func parseFilterValue(raw string) any {
	var v any
	if err := mutation.DecodeJSON([]byte(raw), &v); err == nil {
		switch v.(type) {
		case json.Number, bool, string, nil:
			return v
		}
	}
	return raw
}
