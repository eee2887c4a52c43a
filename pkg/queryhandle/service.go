// Package queryhandle is the public surface over the handle store, the
// selection engine and the operation history ledger.
//
// A Service owns one of each. Tool handlers hold a *Service and never reach
// into the underlying packages for mutable state; everything returned is a
// copy.
package queryhandle

import (
	"context"
	"time"

	"github.com/entrhq/queryhandles/pkg/config"
	"github.com/entrhq/queryhandles/pkg/handles"
	"github.com/entrhq/queryhandles/pkg/history"
	"github.com/entrhq/queryhandles/pkg/selection"
)

// Option configures a Service.
type Option func(*options)

type options struct {
	now    func() time.Time
	log    handles.Logger
	onWarn handles.ExpiryWarning
}

// WithClock replaces time.Now for both the store and the ledger.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLogger sets the logger for the service and its store.
func WithLogger(l handles.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithExpiryWarning registers a callback for reads inside the warning window.
func WithExpiryWarning(fn handles.ExpiryWarning) Option {
	return func(o *options) {
		o.onWarn = fn
	}
}

// Service composes the handle store, selection engine and history ledger.
type Service struct {
	cfg    config.HandlesConfig
	log    handles.Logger
	store  *handles.Store
	engine *selection.Engine
	ledger *history.Ledger
}

// New creates a service. The background cleanup is not started; call
// StartCleanup for that. Zero-valued page sizes fall back to the defaults.
func New(cfg config.HandlesConfig, opts ...Option) *Service {
	o := options{now: time.Now, log: nopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.log == nil {
		o.log = nopLogger{}
	}

	defaults := config.DefaultHandlesConfig()
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = defaults.DefaultPageSize
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = cfg.DefaultPageSize
	}

	s := &Service{
		cfg:    cfg,
		log:    o.log,
		ledger: history.NewLedger(history.WithClock(o.now)),
	}
	s.store = handles.New(handles.Config{
		DefaultTTL:    cfg.DefaultTTL,
		MaxTTL:        cfg.MaxTTL,
		SweepInterval: cfg.CleanupInterval,
		WarningWindow: cfg.WarningWindow,
	},
		handles.WithClock(o.now),
		handles.WithLogger(o.log),
		handles.WithExpiryWarning(o.onWarn),
		handles.WithEvictionHook(s.ledger.Clear),
	)
	s.engine = selection.NewEngine(s.store)
	return s
}

// Config returns the handle settings in effect, with store defaults applied.
func (s *Service) Config() config.HandlesConfig {
	cfg := s.cfg
	eff := s.store.Config()
	cfg.DefaultTTL = eff.DefaultTTL
	cfg.MaxTTL = eff.MaxTTL
	cfg.CleanupInterval = eff.SweepInterval
	cfg.WarningWindow = eff.WarningWindow
	return cfg
}

// StoreQuery creates a handle for a verified result set.
func (s *Service) StoreQuery(req handles.StoreRequest) string {
	handle := s.store.Put(req)
	s.log.Infof("created handle %s for %d record(s)", handle, len(req.RecordIDs))
	return handle
}

// GetRecordIDs returns the handle's identifiers in original order.
func (s *Service) GetRecordIDs(handle string) ([]int, bool) {
	return s.store.RecordIDs(handle)
}

// GetRecord returns a copy of the full handle record.
func (s *Service) GetRecord(handle string) (*handles.Record, bool) {
	return s.store.Get(handle)
}

// Refresh extends the handle's deadline. extension <= 0 means the default TTL.
func (s *Service) Refresh(handle string, extension time.Duration) bool {
	return s.store.Refresh(handle, extension)
}

// Delete removes the handle and its operation history.
func (s *Service) Delete(handle string) bool {
	s.ledger.Clear(handle)
	ok := s.store.Delete(handle)
	if ok {
		s.log.Infof("deleted handle %s", handle)
	}
	return ok
}

// ListHandles pages through handles. A zero PageSize uses the configured
// default and larger sizes are capped at the maximum.
func (s *Service) ListHandles(opts handles.ListOptions) handles.Page {
	switch {
	case opts.PageSize <= 0:
		opts.PageSize = s.cfg.DefaultPageSize
	case opts.PageSize > s.cfg.MaxPageSize:
		opts.PageSize = s.cfg.MaxPageSize
	}
	return s.store.List(opts)
}

// Stats counts active and expired handles without evicting anything.
func (s *Service) Stats() handles.Stats {
	return s.store.Stats()
}

// ClearAll drops every handle and all history.
func (s *Service) ClearAll() {
	s.store.ClearAll()
	s.ledger.ClearAll()
	s.log.Infof("cleared all handles and history")
}

// ResolveAll returns every identifier of handle.
func (s *Service) ResolveAll(handle string) ([]int, bool) {
	return s.engine.All(handle)
}

// ResolveIndices returns the identifiers at the given positions.
func (s *Service) ResolveIndices(handle string, indices []int) ([]int, bool) {
	return s.engine.ByIndices(handle, indices)
}

// ResolveCriteria returns the identifiers whose items match c.
func (s *Service) ResolveCriteria(handle string, c selection.Criteria) ([]int, bool) {
	return s.engine.ByCriteria(handle, c)
}

// ResolveSelector resolves any selector variant. ok is false for a missing
// handle and for an invalid selector alike.
func (s *Service) ResolveSelector(handle string, sel selection.Selector) ([]int, bool) {
	ids, ok := s.engine.Resolve(handle, sel)
	if !ok {
		s.log.Debugf("selector %s did not resolve against %s", sel, handle)
	}
	return ids, ok
}

// SelectableIndices returns [0, n) for handle.
func (s *Service) SelectableIndices(handle string) ([]int, bool) {
	return s.engine.SelectableIndices(handle)
}

// ItemContextAt returns the item at index.
func (s *Service) ItemContextAt(handle string, index int) (handles.ItemContext, bool) {
	return s.engine.ItemContextAt(handle, index)
}

// Preview returns up to limit matched items and the total matched.
func (s *Service) Preview(handle string, sel selection.Selector, limit int) ([]handles.ItemContext, int, bool) {
	return s.engine.Preview(handle, sel, limit)
}

// RecordOperation appends to the handle's history. It reports false, recording
// nothing, when the handle is missing or expired.
func (s *Service) RecordOperation(handle, operationType string, items []history.AffectedItem) (history.Entry, bool) {
	if !s.store.Alive(handle) {
		return history.Entry{}, false
	}
	entry := s.ledger.Record(handle, operationType, items)
	// An eviction between the check and the append has already run its
	// history hook, so drop what was just written.
	if !s.store.Alive(handle) {
		s.ledger.Clear(handle)
		return history.Entry{}, false
	}
	s.log.Debugf("recorded %s on %s (%d item(s))", operationType, handle, len(items))
	return entry, true
}

// OperationHistory returns the handle's operations, oldest first.
func (s *Service) OperationHistory(handle string) ([]history.Entry, bool) {
	return s.ledger.History(handle)
}

// LastOperation returns the undo candidate for handle.
func (s *Service) LastOperation(handle string) (history.Entry, bool) {
	return s.ledger.Last(handle)
}

// RemoveLastOperation pops the most recent entry after it has been reverted.
func (s *Service) RemoveLastOperation(handle string) bool {
	return s.ledger.PopLast(handle)
}

// ClearHistory drops all operations recorded for handle.
func (s *Service) ClearHistory(handle string) {
	s.ledger.Clear(handle)
}

// StartCleanup launches the periodic expiry sweep.
func (s *Service) StartCleanup(ctx context.Context) {
	s.store.Start(ctx)
}

// StopCleanup stops the sweep and waits for it to exit.
func (s *Service) StopCleanup() {
	s.store.Stop()
}

// Sweep removes expired handles now and returns how many were removed.
func (s *Service) Sweep() int {
	return s.store.Sweep()
}

// Close stops the sweep. The service stays usable for reads afterwards.
func (s *Service) Close() error {
	s.store.Stop()
	return nil
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
