package controller_test

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	paging "github.com/nrfta/feed-paging"
	"github.com/nrfta/feed-paging/controller"
	"github.com/nrfta/feed-paging/query"
)

var _ = Describe("Controller", func() {
	var (
		ctx     context.Context
		fetcher *fakeFetcher
		sut     *controller.Controller[testItem]
	)

	BeforeEach(func() {
		ctx = context.Background()
		fetcher = &fakeFetcher{
			respond: cursorPages(map[string]*paging.Page[testItem]{
				"":   {Items: items(1, 2), Meta: paging.NextMeta("c1", 20, false)},
				"c1": {Items: items(3, 4), Meta: paging.NextMeta("c2", 20, true)},
				"c2": {Items: items(5), Meta: paging.TerminalMeta(20)},
			}),
		}
		sut = controller.New[testItem](fetcher, itemID)
	})

	AfterEach(func() {
		sut.Close()
	})

	Describe("Initial load", func() {
		It("does not fetch before it is asked to", func() {
			Expect(fetcher.calls()).To(BeZero())
			Expect(sut.HasMore()).To(BeFalse())
		})

		It("loads page one on Reload", func() {
			sut.Reload(ctx)
			sut.Wait()

			state := sut.State()
			Expect(state.Items).To(Equal(items(1, 2)))
			Expect(paging.CursorValue(state.Cursor)).To(Equal("c1"))
			Expect(state.HasMore).To(BeTrue())
			Expect(state.Err).ToNot(HaveOccurred())
			Expect(fetcher.lastQuery().Has("cursor")).To(BeFalse())
		})

		It("sends the configured page size", func() {
			sut = controller.New[testItem](fetcher, itemID,
				controller.WithConfig(paging.NewConfig().WithPageSize(5)),
			)

			sut.Reload(ctx)
			sut.Wait()

			Expect(fetcher.lastQuery().Get("page_size")).To(Equal("5"))
		})
	})

	Describe("Loading indicators", func() {
		It("sets the primary indicator for a reset load", func() {
			gate := fetcher.hold()
			sut.Reload(ctx)

			state := sut.State()
			Expect(state.Loading).To(BeTrue())
			Expect(state.LoadingMore).To(BeFalse())
			Expect(sut.Loading()).To(BeTrue())

			fetcher.open()
			close(gate)
			sut.Wait()

			state = sut.State()
			Expect(state.Busy()).To(BeFalse())
			Expect(sut.Loading()).To(BeFalse())
		})

		It("sets the trailing indicator for a continuation load", func() {
			sut.Reload(ctx)
			sut.Wait()

			gate := fetcher.hold()
			Expect(sut.LoadMore(ctx)).To(BeTrue())

			state := sut.State()
			Expect(state.Loading).To(BeFalse())
			Expect(state.LoadingMore).To(BeTrue())

			fetcher.open()
			close(gate)
			sut.Wait()

			Expect(sut.State().Busy()).To(BeFalse())
		})
	})

	Describe("Single-flight", func() {
		It("issues exactly one fetch for back-to-back LoadMore calls", func() {
			sut.Reload(ctx)
			sut.Wait()

			gate := fetcher.hold()
			Expect(sut.LoadMore(ctx)).To(BeTrue())
			Expect(sut.LoadMore(ctx)).To(BeFalse())
			Expect(sut.Load(ctx, false, paging.NewCursor("c1"))).To(BeFalse())

			fetcher.open()
			close(gate)
			sut.Wait()

			Expect(fetcher.calls()).To(Equal(2))
			Expect(sut.State().Items).To(Equal(items(1, 2, 3, 4)))
		})

		It("holds under concurrent triggers", func() {
			sut.Reload(ctx)
			sut.Wait()

			gate := fetcher.hold()
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				started int
			)
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if sut.LoadMore(ctx) {
						mu.Lock()
						started++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			fetcher.open()
			close(gate)
			sut.Wait()

			Expect(started).To(Equal(1))
			Expect(fetcher.calls()).To(Equal(2))
		})
	})

	Describe("Appending", func() {
		It("appends pages in arrival order", func() {
			sut.Reload(ctx)
			sut.Wait()
			sut.LoadMore(ctx)
			sut.Wait()

			Expect(sut.State().Items).To(Equal(items(1, 2, 3, 4)))
			Expect(fetcher.lastQuery().Get("cursor")).To(Equal("c1"))
		})

		It("is not affected by a caller modifying a snapshot", func() {
			sut.Reload(ctx)
			sut.Wait()

			state := sut.State()
			*state.Cursor = "hijacked"

			Expect(paging.CursorValue(sut.State().Cursor)).To(Equal("c1"))
			Expect(sut.LoadMore(ctx)).To(BeTrue())
			sut.Wait()
			Expect(fetcher.lastQuery().Get("cursor")).To(Equal("c1"))
			Expect(sut.State().Items).To(Equal(items(1, 2, 3, 4)))
		})

		It("skips items already present in the epoch", func() {
			fetcher.respond = cursorPages(map[string]*paging.Page[testItem]{
				"":   {Items: items(1, 2), Meta: paging.NextMeta("c1", 20, false)},
				"c1": {Items: items(2, 3), Meta: paging.TerminalMeta(20)},
			})

			sut.Reload(ctx)
			sut.Wait()
			sut.LoadMore(ctx)
			sut.Wait()

			Expect(sut.State().Items).To(Equal(items(1, 2, 3)))
		})
	})

	Describe("Terminal page", func() {
		It("stops loading once has_next is false", func() {
			sut.Reload(ctx)
			sut.Wait()
			sut.LoadMore(ctx)
			sut.Wait()
			sut.LoadMore(ctx)
			sut.Wait()

			Expect(sut.HasMore()).To(BeFalse())
			Expect(sut.State().Cursor).To(BeNil())
			calls := fetcher.calls()

			Expect(sut.LoadMore(ctx)).To(BeFalse())
			sut.Wait()

			Expect(fetcher.calls()).To(Equal(calls))
			Expect(sut.State().Items).To(Equal(items(1, 2, 3, 4, 5)))
		})
	})

	Describe("Cache", func() {
		It("applies a cached page synchronously without fetching", func() {
			sut.Reload(ctx)
			sut.Wait()

			Expect(sut.Load(ctx, true, nil)).To(BeTrue())

			Expect(fetcher.calls()).To(Equal(1))
			state := sut.State()
			Expect(state.Items).To(Equal(items(1, 2)))
			Expect(state.Busy()).To(BeFalse())
		})

		It("is cleared by Reload so page one is fetched fresh", func() {
			sut.Reload(ctx)
			sut.Wait()
			sut.Reload(ctx)
			sut.Wait()

			Expect(fetcher.calls()).To(Equal(2))
		})
	})

	Describe("Reset", func() {
		BeforeEach(func() {
			fetcher.respond = func(values url.Values) (*paging.Page[testItem], error) {
				switch values.Get("search") {
				case "bolt":
					return &paging.Page[testItem]{Items: items(10, 11), Meta: paging.NextMeta("b1", 20, false)}, nil
				default:
					return cursorPages(map[string]*paging.Page[testItem]{
						"":   {Items: items(1, 2), Meta: paging.NextMeta("c1", 20, false)},
						"c1": {Items: items(3, 4), Meta: paging.TerminalMeta(20)},
					})(values)
				}
			}
		})

		It("replaces the accumulated items with page one of the new filter", func() {
			sut.Reload(ctx)
			sut.Wait()
			sut.LoadMore(ctx)
			sut.Wait()

			Expect(sut.SetFilter(ctx, query.FilterSpec{}.WithSearch("bolt"))).To(BeTrue())
			sut.Wait()

			state := sut.State()
			Expect(state.Items).To(Equal(items(10, 11)))
			Expect(paging.CursorValue(state.Cursor)).To(Equal("b1"))
			Expect(state.Epoch).To(Equal(uint64(2)))
			Expect(state.Filter.Search).To(Equal("bolt"))
			Expect(fetcher.lastQuery().Get("search")).To(Equal("bolt"))
			Expect(fetcher.lastQuery().Has("cursor")).To(BeFalse())
		})

		It("empties the items as soon as the epoch changes", func() {
			sut.Reload(ctx)
			sut.Wait()

			gate := fetcher.hold()
			sut.SetFilter(ctx, query.FilterSpec{}.WithSearch("bolt"))

			state := sut.State()
			Expect(state.Items).To(BeEmpty())
			Expect(state.Loading).To(BeTrue())
			Expect(state.HasMore).To(BeFalse())

			fetcher.open()
			close(gate)
			sut.Wait()
		})

		It("drops cached pages of the previous epoch", func() {
			sut.Reload(ctx)
			sut.Wait()
			sut.SetFilter(ctx, query.FilterSpec{}.WithSearch("bolt"))
			sut.Wait()
			sut.SetFilter(ctx, query.FilterSpec{})
			sut.Wait()

			Expect(fetcher.calls()).To(Equal(3))
			Expect(sut.State().Items).To(Equal(items(1, 2)))
		})

		It("ignores a filter that selects the same records", func() {
			sut.Reload(ctx)
			sut.Wait()

			Expect(sut.SetFilter(ctx, query.FilterSpec{}.WithSort("id", query.Asc))).To(BeFalse())
			sut.Wait()

			Expect(fetcher.calls()).To(Equal(1))
			Expect(sut.State().Epoch).To(Equal(uint64(1)))
		})

		It("treats a sort change as a new epoch", func() {
			sut.Reload(ctx)
			sut.Wait()

			Expect(sut.SetFilter(ctx, query.FilterSpec{}.WithSort("total_price", query.Desc))).To(BeTrue())
			sut.Wait()

			Expect(fetcher.lastQuery().Get("sort_by")).To(Equal("total_price"))
			Expect(fetcher.lastQuery().Get("sort_order")).To(Equal("desc"))
		})
	})

	Describe("Stale epochs", func() {
		BeforeEach(func() {
			fetcher.respond = func(values url.Values) (*paging.Page[testItem], error) {
				switch values.Get("search") {
				case "old":
					return &paging.Page[testItem]{Items: items(1), Meta: paging.NextMeta("o1", 20, false)}, nil
				case "broken":
					return nil, errors.New("boom")
				default:
					return &paging.Page[testItem]{Items: items(2), Meta: paging.TerminalMeta(20)}, nil
				}
			}
		})

		It("drops a late response of a superseded filter", func() {
			gate := fetcher.hold()
			sut.SetFilter(ctx, query.FilterSpec{}.WithSearch("old"))
			sut.SetFilter(ctx, query.FilterSpec{}.WithSearch("new"))

			fetcher.open()
			close(gate)
			sut.Wait()

			state := sut.State()
			Expect(fetcher.calls()).To(Equal(2))
			Expect(state.Items).To(Equal(items(2)))
			Expect(state.HasMore).To(BeFalse())
			Expect(state.Busy()).To(BeFalse())
		})

		It("drops a late failure of a superseded filter", func() {
			gate := fetcher.hold()
			sut.SetFilter(ctx, query.FilterSpec{}.WithSearch("broken"))
			sut.SetFilter(ctx, query.FilterSpec{}.WithSearch("new"))

			fetcher.open()
			close(gate)
			sut.Wait()

			Expect(sut.State().Err).ToNot(HaveOccurred())
			Expect(sut.State().Items).To(Equal(items(2)))
		})
	})

	Describe("Failures", func() {
		var failNext bool

		BeforeEach(func() {
			failNext = false
			pages := cursorPages(map[string]*paging.Page[testItem]{
				"":   {Items: items(1, 2), Meta: paging.NextMeta("c1", 20, false)},
				"c1": {Items: items(3), Meta: paging.TerminalMeta(20)},
			})
			fetcher.respond = func(values url.Values) (*paging.Page[testItem], error) {
				if failNext {
					return nil, errors.New("status 500")
				}
				return pages(values)
			}
		})

		It("keeps the accumulated state and reports a generic error", func() {
			sut.Reload(ctx)
			sut.Wait()

			failNext = true
			sut.LoadMore(ctx)
			sut.Wait()

			state := sut.State()
			Expect(state.Items).To(Equal(items(1, 2)))
			Expect(state.HasMore).To(BeTrue())
			Expect(paging.CursorValue(state.Cursor)).To(Equal("c1"))
			Expect(state.Busy()).To(BeFalse())
			Expect(state.Err).To(MatchError(controller.ErrLoadFailed))
			Expect(errors.Unwrap(state.Err)).To(MatchError("status 500"))
		})

		It("clears the error on the next successful load", func() {
			sut.Reload(ctx)
			sut.Wait()

			failNext = true
			sut.LoadMore(ctx)
			sut.Wait()

			failNext = false
			Expect(sut.LoadMore(ctx)).To(BeTrue())
			sut.Wait()

			state := sut.State()
			Expect(state.Err).ToNot(HaveOccurred())
			Expect(state.Items).To(Equal(items(1, 2, 3)))
			Expect(fetcher.calls()).To(Equal(3))
		})

		It("keeps the error across a reset until a load succeeds", func() {
			failNext = true
			sut.Reload(ctx)
			sut.Wait()
			Expect(sut.State().Err).To(HaveOccurred())

			gate := fetcher.hold()
			failNext = false
			sut.Reload(ctx)
			Expect(sut.State().Err).To(HaveOccurred())

			fetcher.open()
			close(gate)
			sut.Wait()
			Expect(sut.State().Err).ToNot(HaveOccurred())
		})

		It("reports a timeout as a load failure", func() {
			blocking := paging.FetcherFunc[testItem](func(ctx context.Context, _ string) (*paging.Page[testItem], error) {
				<-ctx.Done()
				return nil, ctx.Err()
			})
			sut = controller.New[testItem](blocking, itemID, controller.WithTimeout(10*time.Millisecond))

			sut.Reload(ctx)
			sut.Wait()

			Expect(sut.State().Err).To(MatchError(context.DeadlineExceeded))
		})

		It("treats a nil page as a failure", func() {
			empty := paging.FetcherFunc[testItem](func(context.Context, string) (*paging.Page[testItem], error) {
				return nil, nil
			})
			sut = controller.New[testItem](empty, itemID)

			sut.Reload(ctx)
			sut.Wait()

			Expect(sut.State().Err).To(MatchError(controller.ErrLoadFailed))
		})
	})

	Describe("RemoveLocal", func() {
		It("removes matching items and keeps the order of the rest", func() {
			sut.Reload(ctx)
			sut.Wait()
			sut.LoadMore(ctx)
			sut.Wait()
			calls := fetcher.calls()

			Expect(sut.RemoveLocal(2)).To(Equal(1))

			Expect(sut.State().Items).To(Equal(items(1, 3, 4)))
			Expect(fetcher.calls()).To(Equal(calls))
		})

		It("is a no-op for an unknown id", func() {
			sut.Reload(ctx)
			sut.Wait()

			Expect(sut.RemoveLocal(99)).To(BeZero())
			Expect(sut.State().Items).To(Equal(items(1, 2)))
		})

		It("does not disturb later appends", func() {
			sut.Reload(ctx)
			sut.Wait()
			sut.RemoveLocal(1)

			sut.LoadMore(ctx)
			sut.Wait()

			Expect(sut.State().Items).To(Equal(items(2, 3, 4)))
		})
	})

	Describe("OnChange", func() {
		It("publishes every transition", func() {
			var (
				mu     sync.Mutex
				states []controller.State[testItem]
			)
			sut.OnChange(func(s controller.State[testItem]) {
				mu.Lock()
				defer mu.Unlock()
				states = append(states, s)
			})

			sut.Reload(ctx)
			sut.Wait()

			mu.Lock()
			defer mu.Unlock()
			Expect(states).To(HaveLen(2))
			Expect(states[0].Loading).To(BeTrue())
			Expect(states[1].Loading).To(BeFalse())
			Expect(states[1].Items).To(Equal(items(1, 2)))
		})
	})

	Describe("OnChange epochs", func() {
		It("stamps every snapshot with the epoch that produced it", func() {
			var (
				mu     sync.Mutex
				epochs []uint64
			)
			sut.OnChange(func(s controller.State[testItem]) {
				mu.Lock()
				defer mu.Unlock()
				epochs = append(epochs, s.Epoch)
			})

			sut.Reload(ctx)
			sut.Wait()
			first := sut.State().Epoch
			sut.SetFilter(ctx, query.FilterSpec{}.WithSearch("bolt"))
			sut.Wait()

			mu.Lock()
			defer mu.Unlock()
			Expect(epochs).To(Equal([]uint64{first, first, first + 1, first + 1}))
		})
	})

	Describe("End-to-end scenario", func() {
		It("loads a filtered query to exhaustion", func() {
			fetcher.respond = func(values url.Values) (*paging.Page[testItem], error) {
				if values.Get("search") != "bolt" {
					return nil, errors.New("unexpected search " + values.Get("search"))
				}
				if values.Get("cursor") == "c1" {
					return &paging.Page[testItem]{Items: items(2), Meta: paging.PageMeta{Cursor: nil, HasNext: false}}, nil
				}
				return &paging.Page[testItem]{Items: items(1), Meta: paging.PageMeta{Cursor: paging.NewCursor("c1"), HasNext: true}}, nil
			}

			sut.SetFilter(ctx, query.FilterSpec{}.WithSearch("bolt"))
			sut.Wait()
			sut.LoadMore(ctx)
			sut.Wait()

			Expect(sut.State().Items).To(Equal(items(1, 2)))
			Expect(sut.LoadMore(ctx)).To(BeFalse())
			Expect(fetcher.calls()).To(Equal(2))
		})
	})
})
