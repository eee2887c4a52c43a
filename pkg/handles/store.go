package handles

import (
	"context"
	"sort"
	"sync"
	"time"
)

const (
	DefaultTTL           = 24 * time.Hour
	DefaultMaxTTL        = 48 * time.Hour
	DefaultSweepInterval = 5 * time.Minute
)

// Logger is the subset of logging.Logger the store writes to.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
}

// ExpiryWarning is called when a read finds a handle inside the warning window.
type ExpiryWarning func(handle string, remaining time.Duration)

// EvictionHook is called after a handle is removed because it expired, either
// lazily on read or by the sweep. Explicit deletes do not trigger it.
type EvictionHook func(handle string)

// Config holds the store's TTL bookkeeping parameters. Zero fields take defaults.
type Config struct {
	DefaultTTL    time.Duration
	MaxTTL        time.Duration
	SweepInterval time.Duration
	// WarningWindow defaults to 10% of DefaultTTL.
	WarningWindow time.Duration
}

func (c Config) withDefaults() Config {
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = DefaultTTL
	}
	if c.MaxTTL <= 0 {
		c.MaxTTL = DefaultMaxTTL
	}
	if c.MaxTTL < c.DefaultTTL {
		c.MaxTTL = c.DefaultTTL
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.WarningWindow <= 0 {
		c.WarningWindow = c.DefaultTTL / 10
	}
	return c
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, mainly so tests can simulate expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for eviction and warning messages.
func WithLogger(l Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithExpiryWarning registers a near-expiry callback.
func WithExpiryWarning(fn ExpiryWarning) Option {
	return func(s *Store) {
		s.onWarn = fn
	}
}

// WithEvictionHook registers a callback for expiry evictions.
func WithEvictionHook(fn EvictionHook) Option {
	return func(s *Store) {
		s.onEvict = fn
	}
}

// Store maps handles to records with lazy expiry on every read and an
// optional background sweep. All methods are safe for concurrent use and never
// return errors: a missing or expired handle is reported as ok == false.
type Store struct {
	cfg     Config
	now     func() time.Time
	log     Logger
	onWarn  ExpiryWarning
	onEvict EvictionHook

	mu      sync.RWMutex
	records map[string]*Record

	sweepMu sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates an empty store. The background sweep is not started.
func New(cfg Config, opts ...Option) *Store {
	s := &Store{
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		log:     nopLogger{},
		records: make(map[string]*Record),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective configuration after defaults were applied.
func (s *Store) Config() Config {
	return s.cfg
}

// Put stores a new record and returns its handle. It always succeeds.
func (s *Store) Put(req StoreRequest) string {
	ttl := s.clampTTL(req.TTL)
	now := s.now()

	s.mu.Lock()
	handle := NewHandle()
	for {
		if _, taken := s.records[handle]; !taken {
			break
		}
		handle = NewHandle()
	}
	rec := buildRecord(handle, req, now, now.Add(ttl))
	s.records[handle] = rec
	s.mu.Unlock()

	s.log.Debugf("stored handle %s: %d items, ttl %s", handle, len(rec.RecordIDs), ttl)
	return handle
}

func (s *Store) clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return s.cfg.DefaultTTL
	}
	if ttl > s.cfg.MaxTTL {
		return s.cfg.MaxTTL
	}
	return ttl
}

// lookupLocked returns the live record for handle, evicting it if expired. The
// caller must hold s.mu for writing.
func (s *Store) lookupLocked(handle string, now time.Time) (rec *Record, evicted bool) {
	rec, ok := s.records[handle]
	if !ok {
		return nil, false
	}
	if rec.Expired(now) {
		delete(s.records, handle)
		return nil, true
	}
	return rec, false
}

// read runs fn against the live record under the lock and handles the
// eviction and warning side effects after releasing it.
func (s *Store) read(handle string, fn func(*Record)) bool {
	now := s.now()

	s.mu.Lock()
	rec, evicted := s.lookupLocked(handle, now)
	var remaining time.Duration
	if rec != nil {
		remaining = rec.ExpiresAt.Sub(now)
		fn(rec)
	}
	s.mu.Unlock()

	if evicted {
		s.evicted(handle, "expired on read")
		return false
	}
	if rec == nil {
		return false
	}
	if remaining < s.cfg.WarningWindow {
		s.log.Warnf("handle %s expires in %s", handle, remaining.Round(time.Second))
		if s.onWarn != nil {
			s.onWarn(handle, remaining)
		}
	}
	return true
}

func (s *Store) evicted(handle, reason string) {
	s.log.Debugf("evicted handle %s: %s", handle, reason)
	if s.onEvict != nil {
		s.onEvict(handle)
	}
}

// Get returns a copy of the record for handle.
func (s *Store) Get(handle string) (*Record, bool) {
	var out *Record
	ok := s.read(handle, func(rec *Record) {
		out = rec.Clone()
	})
	return out, ok
}

// RecordIDs returns a copy of the handle's identifiers in original order.
func (s *Store) RecordIDs(handle string) ([]int, bool) {
	var out []int
	ok := s.read(handle, func(rec *Record) {
		out = make([]int, len(rec.RecordIDs))
		copy(out, rec.RecordIDs)
	})
	return out, ok
}

// Refresh pushes the deadline to now + extension (clamped to MaxTTL) unless
// the current deadline is already later. It returns false, evicting the
// record, when the handle is missing or expired.
func (s *Store) Refresh(handle string, extension time.Duration) bool {
	ext := s.clampTTL(extension)
	now := s.now()

	s.mu.Lock()
	rec, evicted := s.lookupLocked(handle, now)
	if rec != nil {
		if next := now.Add(ext); next.After(rec.ExpiresAt) {
			rec.ExpiresAt = next
		}
	}
	s.mu.Unlock()

	if evicted {
		s.evicted(handle, "expired before refresh")
	}
	return rec != nil
}

// Alive reports whether handle is present and unexpired, evicting it when
// expired. Unlike the read accessors it never fires the expiry warning.
func (s *Store) Alive(handle string) bool {
	now := s.now()

	s.mu.Lock()
	rec, evicted := s.lookupLocked(handle, now)
	s.mu.Unlock()

	if evicted {
		s.evicted(handle, "expired on liveness check")
	}
	return rec != nil
}

// Delete removes handle. It reports whether a record was present, expired or not.
func (s *Store) Delete(handle string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[handle]; !ok {
		return false
	}
	delete(s.records, handle)
	return true
}

// ClearAll removes every record.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*Record)
}

// Stats classifies stored records without evicting anything.
type Stats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
}

// Stats returns a point-in-time count of active and expired records.
func (s *Store) Stats() Stats {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Total: len(s.records)}
	for _, rec := range s.records {
		if rec.Expired(now) {
			st.Expired++
		} else {
			st.Active++
		}
	}
	return st
}

// Summary is the listing view of a record.
type Summary struct {
	Handle        string            `json:"handle"`
	OriginalQuery string            `json:"originalQuery"`
	ItemCount     int               `json:"itemCount"`
	CreatedAt     time.Time         `json:"createdAt"`
	ExpiresAt     time.Time         `json:"expiresAt"`
	Expired       bool              `json:"expired"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Analyzed      bool              `json:"analyzed"`
}

// ListOptions configures List. PageSize <= 0 returns every remaining handle.
type ListOptions struct {
	IncludeExpired bool
	PageSize       int
	Offset         int
}

// Pagination describes where a page sits in the full listing.
type Pagination struct {
	Total      int  `json:"total"`
	Offset     int  `json:"offset"`
	PageSize   int  `json:"pageSize"`
	Returned   int  `json:"returned"`
	HasMore    bool `json:"hasMore"`
	NextOffset int  `json:"nextOffset,omitempty"`
}

// Page is one slice of the handle listing.
type Page struct {
	Handles    []Summary  `json:"handles"`
	Pagination Pagination `json:"pagination"`
}

// List pages through stored handles ordered by creation time, then handle.
// Inserts and deletes between calls may shift later pages; there is no
// snapshot across calls.
func (s *Store) List(opts ListOptions) Page {
	now := s.now()

	s.mu.RLock()
	all := make([]Summary, 0, len(s.records))
	for _, rec := range s.records {
		expired := rec.Expired(now)
		if expired && !opts.IncludeExpired {
			continue
		}
		all = append(all, Summary{
			Handle:        rec.Handle,
			OriginalQuery: rec.OriginalQuery,
			ItemCount:     len(rec.RecordIDs),
			CreatedAt:     rec.CreatedAt,
			ExpiresAt:     rec.ExpiresAt,
			Expired:       expired,
			Metadata:      cloneStringMap(rec.Metadata),
			Analyzed:      rec.Analysis != nil && rec.Analysis.Analyzed,
		})
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].Handle < all[j].Handle
	})

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > len(all) {
		offset = len(all)
	}
	end := len(all)
	if opts.PageSize > 0 && offset+opts.PageSize < end {
		end = offset + opts.PageSize
	}

	page := Page{
		Handles: all[offset:end],
		Pagination: Pagination{
			Total:    len(all),
			Offset:   offset,
			PageSize: opts.PageSize,
			Returned: end - offset,
			HasMore:  end < len(all),
		},
	}
	if page.Pagination.HasMore {
		page.Pagination.NextOffset = end
	}
	return page
}

// Len returns the number of stored records, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
