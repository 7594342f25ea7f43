// Package pipeline owns the merged token snapshot and the view state,
// reconciling both into the visible list the renderer consumes.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"solfavs/pkg/config"
	"solfavs/pkg/models"
)

// DataSource defines the interface for fetching token data.
type DataSource interface {
	FetchTokenInfos(ctx context.Context, mints []string) (map[string]*models.TokenInfo, error)
	FetchTokenPrices(ctx context.Context, mints []string) (map[string]*models.TokenPrice, error)
}

// CleanupMcapThreshold marks a token as inactive when its known market
// cap falls below this many USD.
const CleanupMcapThreshold = 20_000

const priceHistoryLimit = 60

// Pipeline holds the tracked-mint list, the latest snapshot and the
// transient view state. All mutation happens behind one mutex; consumers
// observe changes through subscriber channels.
type Pipeline struct {
	mu         sync.RWMutex
	ds         DataSource
	prefs      config.Preferences
	configPath string

	tracked  []string
	snapshot []models.TokenSnapshot

	search            string
	cleanupActive     bool
	cleanupCandidates []models.TokenSnapshot

	priceHistory map[string][]models.PricePoint

	subscribers []Subscriber
	refreshing  bool
	lastUpdate  time.Time
	lastErr     error

	intervalCh chan time.Duration
	stopChan   chan struct{}
}

// New creates a Pipeline seeded from loaded preferences. configPath may
// be empty to disable persistence (tests).
func New(ds DataSource, prefs config.Preferences, configPath string) *Pipeline {
	return &Pipeline{
		ds:           ds,
		prefs:        prefs,
		configPath:   configPath,
		tracked:      append([]string(nil), prefs.Mints...),
		priceHistory: make(map[string][]models.PricePoint),
		intervalCh:   make(chan time.Duration, 1),
		stopChan:     make(chan struct{}),
	}
}

// SetDataSource allows overriding the data source (useful for testing).
func (p *Pipeline) SetDataSource(ds DataSource) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ds = ds
}

// Subscribe adds a new subscriber and returns a channel to receive events.
func (p *Pipeline) Subscribe() Subscriber {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(Subscriber, 100)
	p.subscribers = append(p.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber.
func (p *Pipeline) Unsubscribe(ch Subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, sub := range p.subscribers {
		if sub == ch {
			p.subscribers = append(p.subscribers[:i], p.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

func (p *Pipeline) notify(event Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, sub := range p.subscribers {
		select {
		case sub <- event:
		default:
			// Slow subscriber, drop rather than block the pipeline.
		}
	}
}

// Start begins the periodic refresh loop.
func (p *Pipeline) Start(ctx context.Context) {
	go p.pollingLoop(ctx)
}

// Stop stops the refresh loop.
func (p *Pipeline) Stop() {
	close(p.stopChan)
}

func (p *Pipeline) pollingLoop(ctx context.Context) {
	_ = p.Refresh(ctx)

	var ticker *time.Ticker
	var tick <-chan time.Time
	if d := p.interval(); d > 0 {
		ticker = time.NewTicker(d)
		tick = ticker.C
	}
	stop := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tick = nil
		}
	}
	defer stop()

	for {
		select {
		case <-tick:
			_ = p.Refresh(ctx)
		case d := <-p.intervalCh:
			// Always tear the old ticker down first so the cadence is
			// never double-scheduled.
			stop()
			if d > 0 {
				ticker = time.NewTicker(d)
				tick = ticker.C
			}
		case <-p.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pipeline) interval() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return time.Duration(p.prefs.RefreshIntervalSeconds) * time.Second
}

// SetInterval changes the polling cadence, persists it, and reschedules
// the loop.
func (p *Pipeline) SetInterval(seconds int) {
	seconds = config.NormalizeInterval(seconds)
	p.mu.Lock()
	p.prefs.RefreshIntervalSeconds = seconds
	p.persistLocked()
	p.mu.Unlock()

	d := time.Duration(seconds) * time.Second
	select {
	case p.intervalCh <- d:
	default:
		// Replace a pending reschedule rather than queueing behind it.
		select {
		case <-p.intervalCh:
		default:
		}
		p.intervalCh <- d
	}
}

// Refresh rebuilds the whole snapshot from the tracked list. Concurrent
// calls coalesce onto the in-flight refresh: the second caller returns
// immediately and observes the result through events.
func (p *Pipeline) Refresh(ctx context.Context) error {
	p.mu.Lock()
	if p.refreshing {
		p.mu.Unlock()
		return nil
	}
	p.refreshing = true
	mints := append([]string(nil), p.tracked...)
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.refreshing = false
		p.mu.Unlock()
	}()

	if len(mints) == 0 {
		p.mu.Lock()
		p.snapshot = nil
		p.lastUpdate = time.Now()
		p.lastErr = nil
		p.mu.Unlock()
		p.notify(Event{Type: EventSnapshotUpdated})
		return nil
	}

	merged, err := p.fetchSnapshots(ctx, mints)
	if err != nil {
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()
		p.notify(Event{Type: EventRefreshFailed, Err: err})
		return err
	}

	p.mu.Lock()
	p.snapshot = merged
	p.recordPricesLocked(merged)
	p.lastUpdate = time.Now()
	p.lastErr = nil
	p.mu.Unlock()
	p.notify(Event{Type: EventSnapshotUpdated})
	return nil
}

// fetchSnapshots runs both endpoint fetches concurrently and merges the
// results in the given mint order. All-or-nothing: either fetch failing
// discards both results.
func (p *Pipeline) fetchSnapshots(ctx context.Context, mints []string) ([]models.TokenSnapshot, error) {
	p.mu.RLock()
	ds := p.ds
	p.mu.RUnlock()

	var (
		wg       sync.WaitGroup
		infos    map[string]*models.TokenInfo
		prices   map[string]*models.TokenPrice
		infoErr  error
		priceErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		infos, infoErr = ds.FetchTokenInfos(ctx, mints)
	}()
	go func() {
		defer wg.Done()
		prices, priceErr = ds.FetchTokenPrices(ctx, mints)
	}()
	wg.Wait()

	if infoErr != nil {
		return nil, infoErr
	}
	if priceErr != nil {
		return nil, priceErr
	}

	merged := make([]models.TokenSnapshot, 0, len(mints))
	for _, m := range mints {
		merged = append(merged, models.TokenSnapshot{
			Mint:  m,
			Info:  infos[m],
			Price: prices[m],
		})
	}
	return merged, nil
}

// AddMints prepends the unique new mints to the tracked list,
// most-recent-first, and persists. It does not fetch; call
// FetchAndPrepend with the returned slice afterwards.
func (p *Pipeline) AddMints(newMints []string) (added []string, duplicates int) {
	p.mu.Lock()
	tracked := make(map[string]struct{}, len(p.tracked))
	for _, m := range p.tracked {
		tracked[m] = struct{}{}
	}
	for _, m := range newMints {
		if _, ok := tracked[m]; ok {
			duplicates++
			continue
		}
		tracked[m] = struct{}{}
		added = append(added, m)
	}
	if len(added) > 0 {
		p.tracked = append(append([]string(nil), added...), p.tracked...)
		// Forget stale history so the sparkline restarts cleanly.
		for _, m := range added {
			delete(p.priceHistory, m)
		}
		p.persistLocked()
	}
	p.mu.Unlock()

	if len(added) > 0 {
		p.notify(Event{Type: EventTokensAdded, Mints: added})
	}
	return added, duplicates
}

// FetchAndPrepend fetches data for newly added mints only and splices the
// snapshots onto the front of the existing snapshot, avoiding a re-fetch
// of everything already displayed. On failure it falls back to a full
// refresh to reconcile state.
func (p *Pipeline) FetchAndPrepend(ctx context.Context, newMints []string) error {
	if len(newMints) == 0 {
		return nil
	}
	fresh, err := p.fetchSnapshots(ctx, newMints)
	if err != nil {
		_ = p.Refresh(ctx)
		return err
	}

	p.mu.Lock()
	p.snapshot = append(fresh, p.snapshot...)
	p.recordPricesLocked(fresh)
	p.lastUpdate = time.Now()
	p.mu.Unlock()
	p.notify(Event{Type: EventSnapshotUpdated})
	return nil
}

// Remove drops a mint from the tracked list and prunes its snapshot entry
// immediately. Removing an untracked mint is a no-op with no persistence
// write.
func (p *Pipeline) Remove(m string) bool {
	p.mu.Lock()
	idx := -1
	for i, tracked := range p.tracked {
		if tracked == m {
			idx = i
			break
		}
	}
	if idx < 0 {
		p.mu.Unlock()
		return false
	}
	p.tracked = append(p.tracked[:idx], p.tracked[idx+1:]...)
	p.pruneSnapshotLocked(map[string]struct{}{m: {}})
	delete(p.priceHistory, m)
	p.persistLocked()
	p.mu.Unlock()

	p.notify(Event{Type: EventTokenRemoved, Mints: []string{m}})
	return true
}

func (p *Pipeline) pruneSnapshotLocked(gone map[string]struct{}) {
	kept := p.snapshot[:0]
	for _, s := range p.snapshot {
		if _, ok := gone[s.Mint]; !ok {
			kept = append(kept, s)
		}
	}
	p.snapshot = kept
}

// EnterCleanup computes the cleanup-candidate set and, when non-empty,
// switches the view into cleanup mode. A token is a candidate when it has
// no price record at all, or when its known market cap is below the
// threshold. Returns the candidate count; zero means the mode was not
// entered.
func (p *Pipeline) EnterCleanup() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	var candidates []models.TokenSnapshot
	for _, s := range p.snapshot {
		if isCleanupCandidate(s) {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return 0
	}
	p.cleanupActive = true
	p.cleanupCandidates = candidates
	return len(candidates)
}

func isCleanupCandidate(s models.TokenSnapshot) bool {
	if s.Price == nil {
		return true
	}
	mcap := s.Mcap()
	return mcap != nil && *mcap < CleanupMcapThreshold
}

// ConfirmCleanup removes every candidate and exits cleanup mode,
// returning the number removed.
func (p *Pipeline) ConfirmCleanup() int {
	p.mu.Lock()
	if !p.cleanupActive {
		p.mu.Unlock()
		return 0
	}
	gone := make(map[string]struct{}, len(p.cleanupCandidates))
	var mints []string
	for _, s := range p.cleanupCandidates {
		gone[s.Mint] = struct{}{}
		mints = append(mints, s.Mint)
	}
	kept := p.tracked[:0]
	for _, m := range p.tracked {
		if _, ok := gone[m]; !ok {
			kept = append(kept, m)
		}
	}
	p.tracked = kept
	p.pruneSnapshotLocked(gone)
	for m := range gone {
		delete(p.priceHistory, m)
	}
	p.cleanupActive = false
	p.cleanupCandidates = nil
	p.persistLocked()
	p.mu.Unlock()

	p.notify(Event{Type: EventTokenRemoved, Mints: mints})
	return len(mints)
}

// CancelCleanup exits cleanup mode without deleting anything.
func (p *Pipeline) CancelCleanup() {
	p.mu.Lock()
	p.cleanupActive = false
	p.cleanupCandidates = nil
	p.mu.Unlock()
}

// CleanupActive reports whether the view is in cleanup mode.
func (p *Pipeline) CleanupActive() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cleanupActive
}

// --- View state ---

// SetSearch updates the session-only search query.
func (p *Pipeline) SetSearch(query string) {
	p.mu.Lock()
	p.search = strings.TrimSpace(query)
	p.mu.Unlock()
}

func (p *Pipeline) Search() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.search
}

// SetSort updates and persists the sort preference.
func (p *Pipeline) SetSort(by, direction string) {
	p.mu.Lock()
	p.prefs.Sort = config.SortState{By: by, Direction: direction}
	p.persistLocked()
	p.mu.Unlock()
}

func (p *Pipeline) Sort() config.SortState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.prefs.Sort
}

// SetFilter updates and persists the filter preference.
func (p *Pipeline) SetFilter(mcap, graduation string) {
	p.mu.Lock()
	p.prefs.Filter = config.FilterState{Mcap: mcap, Graduation: graduation}
	p.persistLocked()
	p.mu.Unlock()
}

func (p *Pipeline) Filter() config.FilterState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.prefs.Filter
}

// SetDisplay updates and persists the primary-metric display mode.
func (p *Pipeline) SetDisplay(mode string) {
	p.mu.Lock()
	if mode == "price" {
		p.prefs.Display = "price"
	} else {
		p.prefs.Display = "mcap"
	}
	p.persistLocked()
	p.mu.Unlock()
}

func (p *Pipeline) Display() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.prefs.Display
}

// Prefs returns a copy of the current preferences.
func (p *Pipeline) Prefs() config.Preferences {
	p.mu.RLock()
	defer p.mu.RUnlock()
	prefs := p.prefs
	prefs.Mints = append([]string(nil), p.tracked...)
	return prefs
}

// UpdatePrefs applies a mutation to the preferences and persists. The
// pipeline is the sole writer to the preference file.
func (p *Pipeline) UpdatePrefs(mutate func(*config.Preferences)) {
	p.mu.Lock()
	mutate(&p.prefs)
	p.persistLocked()
	p.mu.Unlock()
}

// persistLocked writes preferences through the config package. Storage
// failures degrade to a warning: losing a preference write never breaks
// the running session.
func (p *Pipeline) persistLocked() {
	if p.configPath == "" {
		return
	}
	prefs := p.prefs
	prefs.Mints = append([]string(nil), p.tracked...)
	if err := config.Save(prefs, p.configPath); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save preferences: %v\n", err)
	}
}

// --- Derived views ---

// Tracked returns a copy of the tracked mint list.
func (p *Pipeline) Tracked() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.tracked...)
}

// Snapshot returns a copy of the full snapshot.
func (p *Pipeline) Snapshot() []models.TokenSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]models.TokenSnapshot(nil), p.snapshot...)
}

// VisibleList applies the view state to the snapshot: in cleanup mode the
// candidate set is shown verbatim; otherwise filter, search and sort
// compose in that order.
func (p *Pipeline) VisibleList(now time.Time) []models.TokenSnapshot {
	p.mu.RLock()
	if p.cleanupActive {
		out := append([]models.TokenSnapshot(nil), p.cleanupCandidates...)
		p.mu.RUnlock()
		return out
	}
	snapshot := append([]models.TokenSnapshot(nil), p.snapshot...)
	filter := p.prefs.Filter
	sortState := p.prefs.Sort
	search := p.search
	p.mu.RUnlock()

	visible := filterSnapshots(snapshot, filter, search, now)
	return sortSnapshots(visible, sortState)
}

// Counts returns the post-filter count (before any cleanup override) and
// the total snapshot count, both over distinct mints.
func (p *Pipeline) Counts(now time.Time) (filtered, total int) {
	p.mu.RLock()
	snapshot := append([]models.TokenSnapshot(nil), p.snapshot...)
	filter := p.prefs.Filter
	search := p.search
	p.mu.RUnlock()

	total = distinctMints(snapshot)
	filtered = distinctMints(filterSnapshots(snapshot, filter, search, now))
	return filtered, total
}

func distinctMints(snapshots []models.TokenSnapshot) int {
	seen := make(map[string]struct{}, len(snapshots))
	for _, s := range snapshots {
		seen[s.Mint] = struct{}{}
	}
	return len(seen)
}

func filterSnapshots(snapshots []models.TokenSnapshot, filter config.FilterState, search string, now time.Time) []models.TokenSnapshot {
	filtered := snapshots

	if filter.Mcap != "all" {
		kept := make([]models.TokenSnapshot, 0, len(filtered))
		for _, s := range filtered {
			mcap := s.Mcap()
			if mcap == nil {
				continue
			}
			if mcapBucketMatches(filter.Mcap, *mcap) {
				kept = append(kept, s)
			}
		}
		filtered = kept
	}

	if filter.Graduation != "all" {
		kept := make([]models.TokenSnapshot, 0, len(filtered))
		for _, s := range filtered {
			if graduationBucketMatches(filter.Graduation, s.GraduatedAt(), now) {
				kept = append(kept, s)
			}
		}
		filtered = kept
	}

	query := strings.ToLower(strings.TrimSpace(search))
	if query != "" {
		kept := make([]models.TokenSnapshot, 0, len(filtered))
		for _, s := range filtered {
			if matchesQuery(s, query) {
				kept = append(kept, s)
			}
		}
		filtered = kept
	}

	return filtered
}

func mcapBucketMatches(bucket string, mcap float64) bool {
	switch bucket {
	case "under_1m":
		return mcap < 1_000_000
	case "1m_10m":
		return mcap >= 1_000_000 && mcap < 10_000_000
	case "10m_100m":
		return mcap >= 10_000_000 && mcap < 100_000_000
	case "over_100m":
		return mcap >= 100_000_000
	}
	return true
}

func graduationBucketMatches(bucket string, graduatedAt *models.FlexTime, now time.Time) bool {
	const day = 24 * time.Hour
	graduated := graduatedAt != nil
	var age time.Duration
	if graduated {
		age = now.Sub(graduatedAt.Time())
	}
	switch bucket {
	case "not_graduated":
		return !graduated
	case "graduated_1d":
		return graduated && age <= day
	case "graduated_3d":
		return graduated && age <= 3*day
	case "graduated_7d":
		return graduated && age <= 7*day
	case "graduated_30d":
		return graduated && age <= 30*day
	case "graduated_over_30d":
		return graduated && age > 30*day
	}
	return true
}

func matchesQuery(s models.TokenSnapshot, query string) bool {
	if strings.Contains(strings.ToLower(s.Mint), query) {
		return true
	}
	if s.Info == nil {
		return false
	}
	symbol := strings.TrimPrefix(strings.TrimSpace(s.Info.Symbol), "$")
	return symbol != "" && strings.Contains(strings.ToLower(symbol), query)
}

func sortSnapshots(snapshots []models.TokenSnapshot, state config.SortState) []models.TokenSnapshot {
	out := append([]models.TokenSnapshot(nil), snapshots...)

	if state.By == "default" || state.By == "" {
		// Natural order is most-recently-added first; ascending just
		// reverses it, there is no secondary key.
		if state.Direction == "asc" {
			for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
				out[i], out[j] = out[j], out[i]
			}
		}
		return out
	}

	dir := -1.0
	if state.Direction == "asc" {
		dir = 1.0
	}

	sort.SliceStable(out, func(i, j int) bool {
		a := sortValue(out[i], state.By)
		b := sortValue(out[j], state.By)
		// Missing values sort last regardless of direction.
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return (*a-*b)*dir < 0
	})
	return out
}

func sortValue(s models.TokenSnapshot, by string) *float64 {
	switch by {
	case "mcap":
		return s.Mcap()
	case "graduatedAt":
		if g := s.GraduatedAt(); g != nil {
			v := float64(*g)
			return &v
		}
		return nil
	case "1h":
		return s.PriceChange(models.Window1h)
	case "6h":
		return s.PriceChange(models.Window6h)
	case "24h":
		return s.PriceChange(models.Window24h)
	}
	return nil
}

// --- Price history ---

func (p *Pipeline) recordPricesLocked(snapshots []models.TokenSnapshot) {
	now := time.Now()
	for _, s := range snapshots {
		usd := s.USD()
		if usd == nil {
			continue
		}
		hist := append(p.priceHistory[s.Mint], models.PricePoint{Timestamp: now, Value: *usd})
		if len(hist) > priceHistoryLimit {
			hist = hist[len(hist)-priceHistoryLimit:]
		}
		p.priceHistory[s.Mint] = hist
	}
}

// PriceHistory returns the recorded quote values for a mint, oldest first.
func (p *Pipeline) PriceHistory(m string) []float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	hist := p.priceHistory[m]
	values := make([]float64, len(hist))
	for i, pt := range hist {
		values[i] = pt.Value
	}
	return values
}

// LastUpdate returns when the snapshot last changed.
func (p *Pipeline) LastUpdate() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastUpdate
}

// LastError returns the most recent refresh failure, cleared by the next
// successful refresh.
func (p *Pipeline) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}
