package cli_test

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nrfta/feed-paging/orders"
	"github.com/nrfta/feed-paging/query"
)

var _ = Describe("pofeed", func() {
	var (
		api    *ordersAPI
		server *httptest.Server
	)

	BeforeEach(func() {
		api = newOrdersAPI(45)
		server = httptest.NewServer(api.handler())
		DeferCleanup(server.Close)
	})

	Describe("list", func() {
		It("prints one page as a table by default", func() {
			out, err := run(server, "", "list")

			Expect(err).ToNot(HaveOccurred())
			lines := strings.Split(strings.TrimSpace(out), "\n")
			Expect(lines).To(HaveLen(21))
			Expect(lines[0]).To(ContainSubstring("ID"))
			Expect(lines[0]).To(ContainSubstring("ItemName"))
			Expect(lines[1]).To(ContainSubstring("item-1"))
			Expect(api.calls()).To(Equal(1))
		})

		It("fetches further pages up to the limit", func() {
			out, err := run(server, "", "list", "--limit", "25")

			Expect(err).ToNot(HaveOccurred())
			Expect(strings.Split(strings.TrimSpace(out), "\n")).To(HaveLen(26))
			Expect(api.calls()).To(Equal(2))
		})

		It("rejects a non-positive limit without --all", func() {
			_, err := run(server, "", "list", "--limit", "0")
			Expect(err).To(MatchError(ContainSubstring("--limit must be positive")))

			_, err = run(server, "", "list", "--limit=-3")
			Expect(err).To(MatchError(ContainSubstring("--limit must be positive")))
			Expect(api.calls()).To(BeZero())
		})

		It("ignores the limit when --all is set", func() {
			out, err := run(server, "", "list", "--all", "--limit", "0", "-o", "json")
			Expect(err).ToNot(HaveOccurred())

			var list []orders.Order
			Expect(json.Unmarshal([]byte(out), &list)).To(Succeed())
			Expect(list).To(HaveLen(45))
		})

		It("fetches everything as JSON", func() {
			out, err := run(server, "", "list", "--all", "-o", "json")
			Expect(err).ToNot(HaveOccurred())

			var list []orders.Order
			Expect(json.Unmarshal([]byte(out), &list)).To(Succeed())
			Expect(list).To(HaveLen(45))
			Expect(list[44].ID).To(Equal(int64(45)))
		})

		It("applies filters", func() {
			out, err := run(server, "", "list", "status=shipped", "--all", "-o", "json")
			Expect(err).ToNot(HaveOccurred())

			var list []orders.Order
			Expect(json.Unmarshal([]byte(out), &list)).To(Succeed())
			Expect(list).To(HaveLen(15))
			for _, o := range list {
				Expect(o.Status).To(Equal(orders.StatusShipped))
			}
		})

		It("rejects an unknown sort field", func() {
			_, err := run(server, "", "list", "sort_by=colour")

			var verr *query.ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
			Expect(verr.Field).To(Equal("sort_by"))
		})

		It("reports a generic failure when the API is unreachable", func() {
			server.Close()

			_, err := run(server, "", "list")
			Expect(err).To(MatchError("failed to load orders, please try again"))
		})
	})

	Describe("get", func() {
		It("prints the order", func() {
			out, err := run(server, "", "get", "3")

			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(ContainSubstring("item-3"))
			Expect(out).To(ContainSubstring("Vendor:"))
		})

		It("reports a missing order", func() {
			_, err := run(server, "", "get", "999")
			Expect(errors.Is(err, orders.ErrNotFound)).To(BeTrue())
		})

		It("rejects a malformed id", func() {
			_, err := run(server, "", "get", "abc")
			Expect(err).To(MatchError(ContainSubstring("invalid order id")))
		})
	})

	Describe("create", func() {
		It("creates an order from flags", func() {
			out, err := run(server, "", "create",
				"--item", "Hex bolts", "--quantity", "200", "--unit-price", "0.5",
				"--order-date", "2024-05-01", "--delivery-date", "2024-05-14", "--vendor", "Acme")

			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal("created order 46\n"))
		})

		It("creates an order from YAML on stdin", func() {
			doc := "item_name: Washers\norder_date: \"2024-05-01\"\ndelivery_date: \"2024-05-09\"\nquantity: 10\nunit_price: 0.25\n"

			out, err := run(server, doc, "create", "-f", "-")

			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal("created order 46\n"))
		})

		It("rejects an invalid date", func() {
			_, err := run(server, "", "create", "--item", "x", "--quantity", "1", "--order-date", "May 1", "--delivery-date", "2024-05-14")
			Expect(err).To(MatchError(ContainSubstring("order date")))
		})
	})

	Describe("delete", func() {
		It("deletes the order", func() {
			out, err := run(server, "", "delete", "5")
			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(Equal("deleted order 5\n"))

			_, err = run(server, "", "get", "5")
			Expect(errors.Is(err, orders.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("config", func() {
		It("prints the resolved settings", func() {
			out, err := run(server, "", "config")

			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(ContainSubstring("base_url: " + server.URL))
			Expect(out).To(ContainSubstring("timeout: 10s"))
			Expect(out).To(ContainSubstring("page_size: 20"))
		})
	})

	Describe("browse", func() {
		It("shows the first screen", func() {
			out, err := run(server, "q\n", "browse")

			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(ContainSubstring("rows 1-15 of 20, more available"))
		})

		It("loads pages while scrolling to the end", func() {
			out, err := run(server, "end\nq\n", "browse")

			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(ContainSubstring("rows 31-45 of 45 (end of list)"))
			Expect(api.calls()).To(Equal(3))
		})

		It("loads the next page when the last row comes into view", func() {
			out, err := run(server, "down\nq\n", "browse")

			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(ContainSubstring("rows 6-20 of 40, more available"))
		})

		It("deletes without refetching", func() {
			out, err := run(server, "delete 2\nq\n", "browse")

			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(ContainSubstring("deleted order 2"))
			Expect(out).To(ContainSubstring("rows 1-15 of 19, more available"))
			Expect(api.calls()).To(Equal(1))
		})

		It("resets on a filter change", func() {
			out, err := run(server, "filter status=shipped\nq\n", "browse")

			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(ContainSubstring("rows 1-15 of 15 (end of list)"))
		})

		It("keeps running after a bad command", func() {
			out, err := run(server, "frobnicate\nsort colour\nq\n", "browse")

			Expect(err).ToNot(HaveOccurred())
			Expect(out).To(ContainSubstring(`error: unknown command "frobnicate"`))
			Expect(out).To(ContainSubstring("error: invalid filter sort_by"))
		})

		It("ends cleanly at end of input", func() {
			_, err := run(server, "", "browse")
			Expect(err).ToNot(HaveOccurred())
		})
	})
})
