package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/aarondl/null/v8"
	"github.com/aarondl/strmangle"
	"sigs.k8s.io/yaml"

	"github.com/nrfta/feed-paging/orders"
)

// Output formats accepted by --output.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var tableColumns = []string{"id", "item_name", "status", "quantity", "unit_price", "total_price", "order_date", "delivery_date", "vendor"}

func writeOrders(w io.Writer, format string, list []orders.Order) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	case formatYAML:
		return writeYAML(w, list)
	case formatTable, "":
		return writeTable(w, list)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func writeTable(w io.Writer, list []orders.Order) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	headers := make([]string, len(tableColumns))
	for i, col := range tableColumns {
		headers[i] = strmangle.TitleCase(col)
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	for _, o := range list {
		fmt.Fprintln(tw, strings.Join([]string{
			strconv.FormatInt(o.ID, 10),
			o.ItemName,
			string(o.Status),
			strconv.Itoa(o.Quantity),
			formatPrice(o.UnitPrice),
			formatPrice(o.TotalPrice),
			o.OrderDate.String(),
			o.DeliveryDate.String(),
			optional(o.Vendor),
		}, "\t"))
	}
	return tw.Flush()
}

func writeOrder(w io.Writer, o *orders.Order) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fields := []struct {
		name  string
		value string
	}{
		{"id", strconv.FormatInt(o.ID, 10)},
		{"item_name", o.ItemName},
		{"status", string(o.Status)},
		{"quantity", strconv.Itoa(o.Quantity)},
		{"unit_price", formatPrice(o.UnitPrice)},
		{"total_price", formatPrice(o.TotalPrice)},
		{"order_date", o.OrderDate.String()},
		{"delivery_date", o.DeliveryDate.String()},
		{"vendor", optional(o.Vendor)},
		{"category", optional(o.Category)},
		{"shipping_address", optional(o.ShippingAddress)},
		{"description", optional(o.Description)},
		{"notes", optional(o.Notes)},
	}
	for _, f := range fields {
		fmt.Fprintf(tw, "%s:\t%s\n", strmangle.TitleCase(f.name), f.value)
	}
	return tw.Flush()
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func optional(s null.String) string {
	if !s.Valid || s.String == "" {
		return "-"
	}
	return s.String
}
