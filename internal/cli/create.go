package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/aarondl/null/v8"
	"github.com/friendsofgo/errors"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/nrfta/feed-paging/orders"
)

type createFlags struct {
	file            string
	itemName        string
	orderDate       string
	deliveryDate    string
	quantity        int
	unitPrice       float64
	status          string
	description     string
	vendor          string
	shippingAddress string
	category        string
	notes           string
}

func newCreateCommand(a *app) *cobra.Command {
	var f createFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an order from flags or a YAML/JSON file",
		Example: `  pofeed create --item "Hex bolts" --quantity 200 --unit-price 0.12 --order-date 2024-05-01 --delivery-date 2024-05-14
  pofeed create -f order.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				order orders.NewOrder
				err   error
			)
			if f.file != "" {
				order, err = readOrderFile(f.file, cmd.InOrStdin())
			} else {
				order, err = f.order()
			}
			if err != nil {
				return err
			}

			created, err := a.client.Create(cmd.Context(), order)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created order %d\n", created.ID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.file, "file", "f", "", "read the order from a YAML or JSON file (- for stdin)")
	flags.StringVar(&f.itemName, "item", "", "item name")
	flags.StringVar(&f.orderDate, "order-date", "", "order date (YYYY-MM-DD)")
	flags.StringVar(&f.deliveryDate, "delivery-date", "", "delivery date (YYYY-MM-DD)")
	flags.IntVar(&f.quantity, "quantity", 0, "quantity")
	flags.Float64Var(&f.unitPrice, "unit-price", 0, "unit price")
	flags.StringVar(&f.status, "status", "", "initial status (default pending)")
	flags.StringVar(&f.description, "description", "", "description")
	flags.StringVar(&f.vendor, "vendor", "", "vendor")
	flags.StringVar(&f.shippingAddress, "shipping-address", "", "shipping address")
	flags.StringVar(&f.category, "category", "", "category")
	flags.StringVar(&f.notes, "notes", "", "notes")
	cmd.MarkFlagsMutuallyExclusive("file", "item")
	return cmd
}

func (f createFlags) order() (orders.NewOrder, error) {
	order := orders.NewOrder{
		ItemName:        f.itemName,
		Quantity:        f.quantity,
		UnitPrice:       f.unitPrice,
		Description:     nonEmpty(f.description),
		Vendor:          nonEmpty(f.vendor),
		ShippingAddress: nonEmpty(f.shippingAddress),
		Category:        nonEmpty(f.category),
		Notes:           nonEmpty(f.notes),
	}

	var err error
	if order.OrderDate, err = orders.ParseDate(f.orderDate); err != nil {
		return orders.NewOrder{}, errors.Wrap(err, "order date")
	}
	if order.DeliveryDate, err = orders.ParseDate(f.deliveryDate); err != nil {
		return orders.NewOrder{}, errors.Wrap(err, "delivery date")
	}
	if f.status != "" {
		if order.Status, err = orders.ParseStatus(f.status); err != nil {
			return orders.NewOrder{}, err
		}
	}
	return order, nil
}

func readOrderFile(path string, stdin io.Reader) (orders.NewOrder, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return orders.NewOrder{}, errors.Wrap(err, "read order file")
	}

	var order orders.NewOrder
	if err := yaml.Unmarshal(data, &order); err != nil {
		return orders.NewOrder{}, errors.Wrap(err, "parse order file")
	}
	return order, nil
}

func nonEmpty(s string) null.String {
	return null.NewString(s, s != "")
}
