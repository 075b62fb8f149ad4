package dashboard

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/vango-dev/tabledash/internal/resource"
	"github.com/vango-dev/tabledash/pkg/querystate"
	"github.com/vango-dev/tabledash/pkg/table"
	"github.com/vango-dev/tabledash/pkg/tablestate"
	"github.com/vango-dev/tabledash/pkg/tableui"
	"github.com/vango-dev/tabledash/pkg/vdom"
)

const gendersKey = "genders"

// Session is one browser's view of the table. It rebuilds its controller
// once the gender options arrive and reloads the page whenever the query
// changes.
type Session struct {
	d      *Dashboard
	store  querystate.Store
	ctx    context.Context
	cancel context.CancelFunc
	notify func()
	logger *slog.Logger

	page    *resource.Resource[table.Query, Page]
	options *resource.Resource[struct{}, []table.Option]

	mu             sync.Mutex
	ctrl           *tablestate.Controller
	optionsApplied bool
	closed         bool

	loadMu  sync.Mutex
	lastKey string
	clampWG sync.WaitGroup
}

// NewSession binds a controller to store. notify runs after every change
// that needs a re-render and may be called from any goroutine.
func (d *Dashboard) NewSession(ctx context.Context, store querystate.Store, notify func()) (*Session, error) {
	if notify == nil {
		notify = func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		d:      d,
		store:  store,
		ctx:    ctx,
		cancel: cancel,
		notify: notify,
		logger: d.logger,
	}

	genders, ready := d.genders.Peek(gendersKey)
	ctrl, err := tablestate.NewController(store, Columns(d.meta, genders), d.tableOpts...)
	if err != nil {
		cancel()
		return nil, err
	}
	ctrl.OnChange(s.reload)
	s.ctrl = ctrl
	s.optionsApplied = ready

	s.page = d.pages.Resource(s.onPage)
	s.options = d.genders.Resource(s.onOptions)

	s.options.Load(ctx, gendersKey, struct{}{})
	s.reload()
	return s, nil
}

func (s *Session) controller() *tablestate.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl
}

// Controller returns the current table controller.
func (s *Session) Controller() *tablestate.Controller { return s.controller() }

// reload starts a fetch when the controller's query differs from the last
// one loaded.
func (s *Session) reload() {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	q := s.ctrl.Params()
	s.mu.Unlock()

	key := q.Key()
	if key == s.lastKey {
		return
	}
	s.lastKey = key
	s.logger.Debug("load page", "page", q.Page, "perPage", q.PerPage, "filters", len(q.Filters))
	s.page.Load(s.ctx, key, q)
}

// onPage moves back to the last page when a loaded page reports fewer
// pages than the one requested. The clamp runs on its own goroutine since
// Load may emit while reload still holds loadMu.
func (s *Session) onPage(snap resource.Snapshot[Page]) {
	if snap.State == resource.Ready && snap.Data.PageCount > 0 {
		s.mu.Lock()
		ctrl := s.ctrl
		q := ctrl.Params()
		if !s.closed && snap.Key == q.Key() && q.Page > snap.Data.PageCount {
			s.clampWG.Add(1)
			go func() {
				defer s.clampWG.Done()
				ctrl.ClampPage(snap.Data.PageCount)
			}()
		}
		s.mu.Unlock()
	}
	s.notify()
}

func (s *Session) onOptions(snap resource.Snapshot[[]table.Option]) {
	switch snap.State {
	case resource.Ready:
		s.applyOptions(snap.Data)
	case resource.Error:
		s.logger.Warn("gender options failed", "error", snap.Err)
	}
	s.notify()
}

// applyOptions swaps in a controller whose columns carry opts. Pending
// writes are flushed first so the new controller reads them from the URL.
func (s *Session) applyOptions(opts []table.Option) {
	s.mu.Lock()
	if s.closed || s.optionsApplied {
		s.mu.Unlock()
		return
	}
	old := s.ctrl
	old.Flush()
	ctrl, err := tablestate.NewController(s.store, Columns(s.d.meta, opts), s.d.tableOpts...)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("rebuild controller", "error", err)
		return
	}
	ctrl.SelectAllRows(old.SelectedRowIDs(), true)
	for _, col := range ctrl.Columns() {
		if !old.IsColumnVisible(col.ID) {
			_ = ctrl.SetColumnVisible(col.ID, false)
		}
	}
	ctrl.OnChange(s.reload)
	s.ctrl = ctrl
	s.optionsApplied = true
	s.mu.Unlock()

	old.Close()
	s.reload()
}

// View assembles the render input from the controller and the loaded page.
func (s *Session) View() tableui.View {
	st := s.controller().State()
	snap := s.page.Snapshot()

	v := tableui.View{
		State:          st,
		Loading:        snap.IsLoading(),
		OptionsLoading: s.options.Snapshot().IsLoading(),
		Err:            snap.Err,
	}
	if snap.State == resource.Ready {
		v.Rows = snap.Data.Rows
		v.Total = snap.Data.Total
		v.PageCount = snap.Data.PageCount
	}
	v.Columns = slices.Clone(st.Columns)
	for i, col := range v.Columns {
		if col.Variant.HasOptions() {
			v.Columns[i] = table.Facet(col, v.Rows)
		}
	}
	return v
}

// Render returns the page body.
func (s *Session) Render() *vdom.VNode {
	return vdom.Main(
		vdom.Class("container"),
		vdom.Header(
			vdom.Class("page-header"),
			vdom.H1(s.d.Title()),
		),
		tableui.Render(s.View()),
	)
}

// Handle applies one browser event.
func (s *Session) Handle(ev tableui.Event) error {
	return tableui.Dispatch(s.controller(), ev, s.View())
}

// Refetch drops the cached page and loads it again.
func (s *Session) Refetch() {
	s.page.Refetch(s.ctx)
}

// Wait blocks until the options and page loads in flight have finished,
// including a reload caused by an out of range page.
func (s *Session) Wait() {
	s.options.Wait()
	s.page.Wait()
	s.clampWG.Wait()
	s.page.Wait()
}

// Close stops loads and detaches the controller from the store.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	ctrl := s.ctrl
	s.mu.Unlock()

	s.cancel()
	s.options.Close()
	s.page.Close()
	s.clampWG.Wait()
	ctrl.Close()
}
