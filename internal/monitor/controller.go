package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/nerrad567/gray-logic-monitor/internal/telegram"
)

// Buffer sizing defaults. The snapshot-growth heuristic (10% of the snapshot
// size, rounded up to the next 100, floor 1000) is a pragmatic default; both
// constants are configurable and not load-bearing.
const (
	DefaultMinBuffer    = 1000
	DefaultGrowthFactor = 0.10

	capacityRounding = 100
)

// Config holds the controller's tunables.
type Config struct {
	// MinBuffer is the smallest buffer capacity ever used.
	MinBuffer int

	// GrowthFactor scales the snapshot size when computing capacity
	// headroom on (re)load.
	GrowthFactor float64
}

// withDefaults fills zero values with the package defaults.
func (c Config) withDefaults() Config {
	if c.MinBuffer <= 0 {
		c.MinBuffer = DefaultMinBuffer
	}
	if c.GrowthFactor <= 0 {
		c.GrowthFactor = DefaultGrowthFactor
	}
	return c
}

// Recorder receives every ingested telegram's addresses for persistence
// (the observed-address catalogue). Optional.
type Recorder interface {
	RecordTelegram(source, destination string, isResponse bool)
}

// Telemetry receives throughput and buffer fill measurements. Optional.
type Telemetry interface {
	WriteTelegramMetric(direction, telegramType string)
	WriteBufferMetric(size, capacity int)
}

// View is the single derived read surface exposed to presentation clients:
// the filtered, sorted, offset-annotated telegram list plus the distinct
// value distribution with filtered counts.
type View struct {
	Telegrams      []telegram.Record `json:"telegrams"`
	DistinctValues DistinctValues    `json:"distinct_values"`
	TotalCount     int               `json:"total_count"`
	FilteredCount  int               `json:"filtered_count"`
}

// Status is the controller's observable state for presentation clients.
type Status struct {
	ConnectionState    ConnectionState `json:"connection_state"`
	ConnectionError    string          `json:"connection_error,omitempty"`
	Paused             bool            `json:"paused"`
	ReloadEnabled      bool            `json:"reload_enabled"`
	ProjectLoaded      bool            `json:"project_loaded"`
	SelectedTelegramID string          `json:"selected_telegram_id,omitempty"`
	ExpandedFilter     string          `json:"expanded_filter,omitempty"`
	SortColumn         SortColumn      `json:"sort_column"`
	SortDirection      SortDirection   `json:"sort_direction"`
	BufferSize         int             `json:"buffer_size"`
	BufferCapacity     int             `json:"buffer_capacity"`
	Location           string          `json:"location,omitempty"`
	Filters            Filters         `json:"filters"`
}

// Options holds the controller's construction dependencies.
type Options struct {
	Config    Config
	Transport Transport
	Location  Location
	Logger    Logger
	Recorder  Recorder  // optional
	Telemetry Telemetry // optional

	// OnChange is invoked after every mutating operation, outside the
	// controller lock, so observers can re-read the derived view.
	OnChange func()
}

// viewKey is the memoization key for the derived view. Recomputation is
// skipped while the mutation counter, serialized filters and sort state are
// all unchanged.
type viewKey struct {
	version     uint64
	filtersJSON string
	column      SortColumn
	direction   SortDirection
}

// Controller orchestrates the telegram monitor: it receives snapshot and
// live events, maintains buffer and distinct value index, persists filter
// state to the navigable location, and exposes one memoized query surface.
//
// All mutable state is owned by the controller and guarded by mu; the live
// feed, API handlers and internal listeners all serialize through it. While
// disconnected the log keeps functioning in read-only mode (connectionError
// is orthogonal to the main flow).
type Controller struct {
	cfg       Config
	conn      *ConnectionService
	transport Transport
	location  Location
	logger    Logger
	recorder  Recorder
	telemetry Telemetry
	onChange  func()

	mu              sync.Mutex
	buffer          *RingBuffer
	index           *DistinctValueIndex
	filters         Filters
	sortColumn      SortColumn
	sortDirection   SortDirection
	expandedFilter  string
	paused          bool
	reloadEnabled   bool
	projectLoaded   bool
	connectionError string
	selectedID      string

	// version counts buffer/index mutations; part of the memoization key.
	version    uint64
	cachedKey  viewKey
	cachedView *View
}

// NewController creates a controller with filters rehydrated from the
// location's query parameters. It does not touch the network; call Setup to
// load the snapshot and subscribe.
func NewController(opts Options) *Controller {
	cfg := opts.Config.withDefaults()

	c := &Controller{
		cfg:           cfg,
		transport:     opts.Transport,
		location:      opts.Location,
		logger:        opts.Logger,
		recorder:      opts.Recorder,
		telemetry:     opts.Telemetry,
		onChange:      opts.OnChange,
		buffer:        NewRingBuffer(cfg.MinBuffer),
		index:         NewDistinctValueIndex(opts.Logger),
		filters:       make(Filters),
		sortColumn:    DefaultSortColumn,
		sortDirection: DefaultSortDirection,
	}

	if opts.Location != nil {
		c.filters = DecodeFilters(opts.Location.Query())
	}

	c.conn = NewConnectionService(opts.Transport, opts.Logger)
	c.conn.SetOnTelegram(c.OnTelegram)
	c.conn.AddListener(c.handleConnectionChange)

	return c
}

// Connection exposes the underlying connection service (read-mostly; used
// by main to tear the subscription down on shutdown).
func (c *Controller) Connection() *ConnectionService {
	return c.conn
}

// Setup loads the authoritative snapshot, sizes the buffer, merges the
// snapshot into it and subscribes to the live feed.
//
// A snapshot or subscribe failure is recorded in the connection error state
// and returned; the controller stays usable and the caller recovers via an
// explicit Reload/RetryConnection, never an automatic retry.
func (c *Controller) Setup(ctx context.Context) error {
	if c.conn.IsSubscribed() {
		if c.logger != nil {
			c.logger.Warn("setup called while already connected")
		}
		return nil
	}

	if err := c.loadSnapshot(ctx); err != nil {
		return err
	}

	if err := c.conn.Subscribe(ctx); err != nil {
		return err
	}
	return nil
}

// OnTelegram is the live-feed callback.
//
// While paused the event is dropped (never buffered, so a long pause cannot
// grow memory) and the reload flag is raised so the user can pull a fresh
// snapshot later. Otherwise the event is wrapped, buffered, indexed and the
// observers are notified.
func (c *Controller) OnTelegram(raw telegram.RawTelegram) {
	c.mu.Lock()
	if c.paused {
		c.reloadEnabled = true
		c.mu.Unlock()
		c.notifyChange()
		return
	}

	rec := telegram.NewRecord(raw)
	evicted := c.buffer.Add(rec)
	c.index.RemoveRecords(evicted)
	c.index.AddRecord(rec)
	c.version++
	size, capacity := c.buffer.Len(), c.buffer.MaxSize()
	c.mu.Unlock()

	if c.recorder != nil {
		c.recorder.RecordTelegram(rec.SourceAddress, rec.DestinationAddress,
			rec.Type == telegram.TypeGroupValueResponse)
	}
	if c.telemetry != nil {
		c.telemetry.WriteTelegramMetric(rec.Direction, rec.Type)
		c.telemetry.WriteBufferMetric(size, capacity)
	}

	c.notifyChange()
}

// TogglePause flips the paused flag. Buffer state is untouched; only future
// live events are affected.
func (c *Controller) TogglePause() {
	c.mu.Lock()
	c.paused = !c.paused
	c.mu.Unlock()
	c.notifyChange()
}

// Reload re-pulls the authoritative snapshot and merges it, clearing the
// reload flag on success. Explicitly user-triggered.
func (c *Controller) Reload(ctx context.Context) error {
	if err := c.loadSnapshot(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.reloadEnabled = false
	c.mu.Unlock()
	c.notifyChange()
	return nil
}

// RetryConnection re-subscribes to the live feed after a transport error.
// Explicitly user-triggered; callers typically Reload around it to cover
// the gap.
func (c *Controller) RetryConnection(ctx context.Context) error {
	c.mu.Lock()
	c.connectionError = ""
	c.mu.Unlock()

	return c.conn.Reconnect(ctx)
}

// ClearTelegrams empties the buffer and rebuilds the distinct value index
// preserving the currently selected filter chips (with zero counts), so the
// user keeps their selection until new matching traffic arrives. Reload is
// marked available.
func (c *Controller) ClearTelegrams() {
	c.mu.Lock()
	c.buffer.Clear()
	c.index.Clear(c.filters)
	c.reloadEnabled = true
	c.version++
	c.mu.Unlock()
	c.notifyChange()
}

// ToggleFilterValue adds or removes one value from a field's selection,
// persists the filter state to the location and prunes stale distinct
// value entries.
func (c *Controller) ToggleFilterValue(field telegram.Field, value string) {
	c.mu.Lock()
	c.filters.Toggle(field, value)
	c.persistFiltersLocked()
	c.index.Prune(c.filters)
	c.version++
	c.mu.Unlock()
	c.notifyChange()
}

// SetFilterFieldValues replaces a field's selection wholesale.
func (c *Controller) SetFilterFieldValues(field telegram.Field, values []string) {
	c.mu.Lock()
	c.filters.Set(field, values)
	c.persistFiltersLocked()
	c.index.Prune(c.filters)
	c.version++
	c.mu.Unlock()
	c.notifyChange()
}

// ClearFilters removes every active filter.
func (c *Controller) ClearFilters() {
	c.mu.Lock()
	c.filters = make(Filters)
	c.persistFiltersLocked()
	c.index.Prune(c.filters)
	c.version++
	c.mu.Unlock()
	c.notifyChange()
}

// SetSort changes the view ordering.
func (c *Controller) SetSort(column SortColumn, direction SortDirection) {
	c.mu.Lock()
	c.sortColumn = column
	c.sortDirection = direction
	c.mu.Unlock()
	c.notifyChange()
}

// SetExpandedFilter records which filter dropdown the client has open
// (pure presentation state, round-tripped for multi-client consistency).
func (c *Controller) SetExpandedFilter(field string) {
	c.mu.Lock()
	c.expandedFilter = field
	c.mu.Unlock()
	c.notifyChange()
}

// SelectTelegram sets the selection pointer to the given record ID.
func (c *Controller) SelectTelegram(id string) {
	c.mu.Lock()
	c.selectedID = id
	c.mu.Unlock()
	c.notifyChange()
}

// NavigateTelegram moves the selection pointer by delta positions within
// the currently filtered and sorted list. Out-of-range moves and an absent
// selection are no-ops.
func (c *Controller) NavigateTelegram(delta int) {
	c.mu.Lock()
	view := c.materializeLocked()

	idx := -1
	for i := range view.Telegrams {
		if view.Telegrams[i].ID == c.selectedID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return
	}

	next := idx + delta
	if next < 0 || next >= len(view.Telegrams) {
		c.mu.Unlock()
		return
	}
	c.selectedID = view.Telegrams[next].ID
	c.mu.Unlock()
	c.notifyChange()
}

// FilteredTelegramsAndDistinctValues is the single read path: the buffer
// snapshot filtered, sorted, offset-annotated, with per-value filtered
// counts tallied over the filtered set. The result is memoized on the
// mutation counter plus serialized filter and sort state.
func (c *Controller) FilteredTelegramsAndDistinctValues() *View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.materializeLocked()
}

// Status returns the controller's observable state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	location := ""
	if loc, ok := c.location.(*MemoryLocation); ok && loc != nil {
		location = loc.String()
	}

	return Status{
		ConnectionState:    c.conn.State(),
		ConnectionError:    c.connectionError,
		Paused:             c.paused,
		ReloadEnabled:      c.reloadEnabled,
		ProjectLoaded:      c.projectLoaded,
		SelectedTelegramID: c.selectedID,
		ExpandedFilter:     c.expandedFilter,
		SortColumn:         c.sortColumn,
		SortDirection:      c.sortDirection,
		BufferSize:         c.buffer.Len(),
		BufferCapacity:     c.buffer.MaxSize(),
		Location:           location,
		Filters:            c.filters.Clone(),
	}
}

// Filters returns a copy of the active filters.
func (c *Controller) Filters() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters.Clone()
}

// IsPaused reports whether live events are currently dropped.
func (c *Controller) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// IsReloadEnabled reports whether a fresh snapshot pull is advised.
func (c *Controller) IsReloadEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reloadEnabled
}

// IsProjectLoaded reports whether the core has an ETS project loaded
// (controls whether human-readable names can be expected).
func (c *Controller) IsProjectLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectLoaded
}

// ConnectionError returns the last transport error message, empty if none.
func (c *Controller) ConnectionError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectionError
}

// SelectedTelegramID returns the current selection pointer, empty if none.
func (c *Controller) SelectedTelegramID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedID
}

// loadSnapshot fetches the recent-telegram snapshot, resizes the buffer and
// merges the snapshot in, keeping the distinct value index consistent with
// every eviction and insertion.
//
// The capacity formula is evaluated on every load, but the buffer is only
// ever grown: shrinking on a smaller snapshot would evict live records the
// user is looking at.
func (c *Controller) loadSnapshot(ctx context.Context) error {
	snapshot, err := c.transport.FetchRecentTelegrams(ctx)
	if err != nil {
		c.mu.Lock()
		c.connectionError = err.Error()
		c.mu.Unlock()
		c.notifyChange()
		return fmt.Errorf("%w: %w", ErrSnapshotFetch, err)
	}

	records := make([]telegram.Record, 0, len(snapshot.RecentTelegrams))
	for _, raw := range snapshot.RecentTelegrams {
		records = append(records, telegram.NewRecord(raw))
	}

	c.mu.Lock()
	capacity := bufferCapacity(len(records), c.cfg.MinBuffer, c.cfg.GrowthFactor)
	if capacity > c.buffer.MaxSize() {
		c.buffer.SetMaxSize(capacity)
	}

	added, evicted := c.buffer.Merge(records)
	c.index.RemoveRecords(evicted)
	for i := range added {
		c.index.AddRecord(added[i])
	}

	c.projectLoaded = snapshot.ProjectLoaded
	c.connectionError = ""
	c.version++
	size, bufCapacity := c.buffer.Len(), c.buffer.MaxSize()
	c.mu.Unlock()

	if c.telemetry != nil {
		c.telemetry.WriteBufferMetric(size, bufCapacity)
	}
	if c.logger != nil {
		c.logger.Info("snapshot merged",
			"snapshot_size", len(records),
			"added", len(added),
			"evicted", len(evicted),
			"capacity", bufCapacity,
		)
	}
	c.notifyChange()
	return nil
}

// handleConnectionChange mirrors connection state into the controller's
// orthogonal error state.
func (c *Controller) handleConnectionChange(connected bool, errMessage string) {
	c.mu.Lock()
	if connected {
		c.connectionError = ""
	} else {
		c.connectionError = errMessage
	}
	c.mu.Unlock()
	c.notifyChange()
}

// materializeLocked computes (or returns the memoized) derived view.
// Callers must hold c.mu.
func (c *Controller) materializeLocked() *View {
	key := viewKey{
		version:     c.version,
		filtersJSON: filtersKey(c.filters),
		column:      c.sortColumn,
		direction:   c.sortDirection,
	}
	if c.cachedView != nil && key == c.cachedKey {
		return c.cachedView
	}

	all := c.buffer.Snapshot()
	filtered := make([]telegram.Record, 0, len(all))
	for i := range all {
		if Matches(all[i], c.filters) {
			filtered = append(filtered, all[i])
		}
	}

	SortRecords(filtered, c.sortColumn, c.sortDirection)
	ComputeOffsets(filtered, c.sortColumn, c.sortDirection)

	distinct := c.index.Snapshot()
	for i := range filtered {
		for _, f := range telegram.Fields() {
			ref, err := f.Project(filtered[i])
			if err != nil {
				continue
			}
			if entry, ok := distinct[f][ref.ID]; ok {
				entry.FilteredCount++
				distinct[f][ref.ID] = entry
			}
		}
	}

	view := &View{
		Telegrams:      filtered,
		DistinctValues: distinct,
		TotalCount:     len(all),
		FilteredCount:  len(filtered),
	}
	c.cachedKey = key
	c.cachedView = view
	return view
}

// persistFiltersLocked rewrites the location query from the active filters.
// Replace semantics: no history entries accumulate. Callers must hold c.mu.
func (c *Controller) persistFiltersLocked() {
	if c.location != nil {
		c.location.ReplaceQuery(EncodeFilters(c.filters))
	}
}

// notifyChange invokes the observer outside the controller lock.
func (c *Controller) notifyChange() {
	if c.onChange != nil {
		c.onChange()
	}
}

// filtersKey serializes filters deterministically (JSON object keys are
// emitted sorted) for the memoization key.
func filtersKey(filters Filters) string {
	data, err := json.Marshal(filters)
	if err != nil {
		return ""
	}
	return string(data)
}

// bufferCapacity computes the dynamic buffer capacity for a snapshot of n
// records: n*growth headroom, rounded up to the next multiple of 100, never
// below minBuffer.
func bufferCapacity(n, minBuffer int, growth float64) int {
	headroom := int(math.Ceil(float64(n) * growth))
	rounded := (headroom + capacityRounding - 1) / capacityRounding * capacityRounding
	if rounded < minBuffer {
		return minBuffer
	}
	return rounded
}
