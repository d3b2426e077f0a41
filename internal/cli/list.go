package cli

import (
	"github.com/friendsofgo/errors"
	"github.com/spf13/cobra"

	"github.com/nrfta/feed-paging/query"
)

func newListCommand(a *app) *cobra.Command {
	var (
		limit  int
		all    bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "list [key=value ...]",
		Short: "Print orders matching a filter",
		Long: `Print orders matching a filter, fetching as many pages as needed.

Filters use the API parameter names: search, status, category, vendor,
min_price, max_price, min_date, max_date, sort_by and sort_order.`,
		Example: "  pofeed list status=shipped sort_by=total_price sort_order=desc --limit 50",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && limit <= 0 {
				return errors.Errorf("--limit must be positive, got %d (use --all for every order)", limit)
			}

			spec, err := parseFilterArgs(args)
			if err != nil {
				return err
			}

			ctrl := a.newController(spec)
			defer ctrl.Close()

			ctx := cmd.Context()
			ctrl.Load(ctx, true, nil)
			ctrl.Wait()

			for {
				state := ctrl.State()
				if state.Err != nil {
					return state.Err
				}
				if !state.HasMore || (!all && len(state.Items) >= limit) {
					break
				}
				ctrl.LoadMore(ctx)
				ctrl.Wait()
			}

			list := ctrl.State().Items
			if !all && len(list) > limit {
				list = list[:limit]
			}
			return writeOrders(cmd.OutOrStdout(), output, list)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "stop after this many orders; must be positive unless --all is set")
	cmd.Flags().BoolVar(&all, "all", false, "fetch every page")
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "table, json or yaml")
	return cmd
}

func parseFilterArgs(args []string) (query.FilterSpec, error) {
	pairs, err := query.ParsePairs(args)
	if err != nil {
		return query.FilterSpec{}, err
	}
	return query.ParseFilter(pairs)
}
