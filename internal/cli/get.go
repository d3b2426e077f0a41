package cli

import (
	"strconv"

	"github.com/friendsofgo/errors"
	"github.com/spf13/cobra"

	"github.com/nrfta/feed-paging/orders"
)

func newGetCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			order, err := a.client.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			if output == formatTable || output == "" {
				return writeOrder(cmd.OutOrStdout(), order)
			}
			return writeOrders(cmd.OutOrStdout(), output, []orders.Order{*order})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "table, json or yaml")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid order id %q", s)
	}
	return id, nil
}
