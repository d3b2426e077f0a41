package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/friendsofgo/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nrfta/feed-paging/controller"
	"github.com/nrfta/feed-paging/orders"
	"github.com/nrfta/feed-paging/query"
	"github.com/nrfta/feed-paging/trigger"
)

// rowHeight converts list rows into the pixel geometry the scroll signal works in.
const rowHeight = 20

const browseHelp = `commands:
  down [n], j      scroll down n rows (default one screen)
  up [n], k        scroll up n rows (default one screen)
  end              scroll to the end of the list, loading every page
  more             load the next page
  show ID          show one order
  delete ID        delete an order
  filter k=v ...   replace the filter (filter clear resets it)
  sort FIELD [asc|desc]
  reload           reload from the first page
  help
  quit, q`

func newBrowseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse [key=value ...]",
		Short: "Scroll through orders interactively",
		Long: `Scroll through orders interactively. Pages are loaded as the view
approaches the end of the list, the way an infinite-scroll table does.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := parseFilterArgs(args)
			if err != nil {
				return err
			}

			ctrl := a.newController(spec)
			defer ctrl.Close()

			b := newBrowser(ctrl, a.client, cmd.OutOrStdout(), a.cfg.View.Rows,
				trigger.WithThreshold(a.cfg.Feed.ScrollThreshold),
				trigger.WithThrottle(a.cfg.Feed.ScrollThrottle),
			)
			b.logger = a.logger
			return b.run(cmd.Context(), cmd.InOrStdin())
		},
	}
}

// browser is a line-oriented list view over a virtual viewport of rows.
type browser struct {
	ctrl     *controller.Controller[orders.Order]
	client   *orders.Client
	triggers *trigger.Set
	out      io.Writer
	logger   *zap.Logger

	rows int
	top  int
}

func newBrowser(ctrl *controller.Controller[orders.Order], client *orders.Client, out io.Writer, rows int, opts ...trigger.ScrollOption) *browser {
	if rows <= 0 {
		rows = 1
	}
	return &browser{
		ctrl:     ctrl,
		client:   client,
		triggers: trigger.NewSet(ctrl, opts...),
		out:      out,
		logger:   zap.NewNop(),
		rows:     rows,
	}
}

func (b *browser) run(ctx context.Context, in io.Reader) error {
	b.ctrl.OnChange(func(s controller.State[orders.Order]) {
		b.logger.Debug("feed state",
			zap.Int("items", len(s.Items)),
			zap.Bool("has_more", s.HasMore),
			zap.Bool("loading", s.Loading),
			zap.Bool("loading_more", s.LoadingMore),
			zap.Uint64("epoch", s.Epoch),
		)
	})

	b.ctrl.Load(ctx, true, nil)
	b.ctrl.Wait()
	b.render()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(b.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(b.out)
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		quit, err := b.exec(ctx, fields[0], fields[1:])
		if err != nil {
			fmt.Fprintf(b.out, "error: %s\n", err)
			continue
		}
		if quit {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (b *browser) exec(ctx context.Context, command string, args []string) (quit bool, err error) {
	switch command {
	case "down", "j":
		n, err := b.count(args)
		if err != nil {
			return false, err
		}
		b.scroll(ctx, n)
	case "up", "k":
		n, err := b.count(args)
		if err != nil {
			return false, err
		}
		b.scroll(ctx, -n)
	case "end":
		for {
			b.top = len(b.ctrl.State().Items)
			if !b.scroll(ctx, 0) || b.ctrl.State().Err != nil {
				break
			}
		}
	case "more":
		if !b.ctrl.LoadMore(ctx) {
			fmt.Fprintln(b.out, "nothing more to load")
			return false, nil
		}
		b.wait()
	case "show":
		return false, b.show(ctx, args)
	case "delete", "rm":
		return false, b.delete(ctx, args)
	case "filter":
		return false, b.filter(ctx, args)
	case "sort":
		return false, b.sort(ctx, args)
	case "reload":
		b.top = 0
		b.ctrl.Reload(ctx)
		b.wait()
	case "help", "?":
		fmt.Fprintln(b.out, browseHelp)
		return false, nil
	case "quit", "q", "exit":
		return true, nil
	default:
		return false, errors.Errorf("unknown command %q, try help", command)
	}
	return false, nil
}

func (b *browser) count(args []string) (int, error) {
	if len(args) == 0 {
		return b.rows, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, errors.Errorf("invalid row count %q", args[0])
	}
	return n, nil
}

// scroll moves the view by delta rows, feeds the new geometry to the load
// triggers and renders. It reports whether a load was started.
func (b *browser) scroll(ctx context.Context, delta int) bool {
	state := b.ctrl.State()
	total := len(state.Items)

	b.top = clamp(b.top+delta, 0, max(total-b.rows, 0))
	last := min(b.top+b.rows, total) - 1

	b.triggers.Intersection.Observe(total - 1)
	vp := trigger.Viewport{
		ScrollHeight: float64(total * rowHeight),
		ScrollTop:    float64(b.top * rowHeight),
		ClientHeight: float64(min(b.rows, total) * rowHeight),
	}

	started := b.triggers.Observe(ctx, vp, last)
	if started {
		b.wait()
	} else {
		b.render()
	}
	return started
}

func (b *browser) wait() {
	if b.ctrl.State().Busy() {
		fmt.Fprintln(b.out, "loading...")
	}
	b.ctrl.Wait()
	b.render()
}

func (b *browser) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: show ID")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	order, err := b.client.Get(ctx, id)
	if err != nil {
		return err
	}
	return writeOrder(b.out, order)
}

func (b *browser) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: delete ID")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := b.client.Delete(ctx, id); err != nil {
		return err
	}

	b.ctrl.RemoveLocal(id)
	fmt.Fprintf(b.out, "deleted order %d\n", id)
	b.top = clamp(b.top, 0, max(len(b.ctrl.State().Items)-b.rows, 0))
	b.render()
	return nil
}

func (b *browser) filter(ctx context.Context, args []string) error {
	spec := query.FilterSpec{}
	if len(args) != 1 || args[0] != "clear" {
		var err error
		if spec, err = parseFilterArgs(args); err != nil {
			return err
		}
	}
	// The sort carries over unless the new filter names one.
	if spec.SortBy == "" && spec.SortOrder == "" {
		current := b.ctrl.Filter()
		spec.SortBy, spec.SortOrder = current.SortBy, current.SortOrder
	}
	return b.reset(ctx, spec)
}

func (b *browser) sort(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return errors.New("usage: sort FIELD [asc|desc]")
	}
	dir := query.Asc
	if len(args) == 2 {
		dir = query.Direction(strings.ToLower(args[1]))
	}
	spec := b.ctrl.Filter().WithSort(args[0], dir)
	if err := spec.Validate(); err != nil {
		return err
	}
	return b.reset(ctx, spec)
}

func (b *browser) reset(ctx context.Context, spec query.FilterSpec) error {
	if !b.ctrl.SetFilter(ctx, spec) {
		fmt.Fprintln(b.out, "filter unchanged")
		return nil
	}
	b.top = 0
	b.wait()
	return nil
}

func (b *browser) render() {
	state := b.ctrl.State()
	total := len(state.Items)

	if state.Err != nil {
		fmt.Fprintf(b.out, "error: %s\n", state.Err)
	}
	if total == 0 {
		if !state.Busy() {
			fmt.Fprintln(b.out, "no orders")
		}
		return
	}

	b.top = clamp(b.top, 0, max(total-b.rows, 0))
	end := min(b.top+b.rows, total)
	if err := writeTable(b.out, state.Items[b.top:end]); err != nil {
		b.logger.Warn("render", zap.Error(err))
	}

	suffix := " (end of list)"
	if state.HasMore {
		suffix = ", more available"
	}
	fmt.Fprintf(b.out, "rows %d-%d of %d%s\n", b.top+1, end, total, suffix)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
