// Package orders is the purchase-order client: the record type, the
// paginated feed used by the controller, and the single-record operations
// (get, create, delete) the surrounding UI performs itself.
package orders

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/aarondl/strmangle"

	"github.com/nrfta/feed-paging/query"
)

// Status is the lifecycle state of a purchase order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus validates s case-insensitively.
func ParseStatus(s string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if !strmangle.SetInclude(v, query.Statuses) {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return Status(v), nil
}

// Date is a calendar date encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate returns the given calendar date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(query.DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(query.DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Order is a purchase order as returned by the API.
type Order struct {
	ID              int64       `json:"id"`
	ItemName        string      `json:"item_name"`
	OrderDate       Date        `json:"order_date"`
	DeliveryDate    Date        `json:"delivery_date"`
	Quantity        int         `json:"quantity"`
	UnitPrice       float64     `json:"unit_price"`
	TotalPrice      float64     `json:"total_price"`
	Status          Status      `json:"status"`
	Description     null.String `json:"description"`
	Vendor          null.String `json:"vendor"`
	ShippingAddress null.String `json:"shipping_address"`
	Category        null.String `json:"category"`
	Notes           null.String `json:"notes"`
}

// OrderID extracts the identifier of o.
func OrderID(o Order) int64 {
	return o.ID
}

// NewOrder is the payload of a create request. The server computes the total price.
type NewOrder struct {
	ItemName        string      `json:"item_name"`
	OrderDate       Date        `json:"order_date"`
	DeliveryDate    Date        `json:"delivery_date"`
	Quantity        int         `json:"quantity"`
	UnitPrice       float64     `json:"unit_price"`
	Status          Status      `json:"status,omitempty"`
	Description     null.String `json:"description"`
	Vendor          null.String `json:"vendor"`
	ShippingAddress null.String `json:"shipping_address"`
	Category        null.String `json:"category"`
	Notes           null.String `json:"notes"`
}

// Validate rejects payloads the API would refuse.
func (n NewOrder) Validate() error {
	switch {
	case strings.TrimSpace(n.ItemName) == "":
		return fmt.Errorf("item name is required")
	case n.OrderDate.IsZero() || n.DeliveryDate.IsZero():
		return fmt.Errorf("order and delivery dates are required")
	case n.Quantity <= 0:
		return fmt.Errorf("quantity must be positive, got %d", n.Quantity)
	case n.UnitPrice < 0:
		return fmt.Errorf("unit price must not be negative")
	}
	if n.Status != "" {
		if _, err := ParseStatus(string(n.Status)); err != nil {
			return err
		}
	}
	return nil
}
