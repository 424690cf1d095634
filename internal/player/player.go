package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"
)

// Mode selects the presentation source kind
type Mode int

const (
	// ModeFile plays slide images converted from an uploaded document
	ModeFile Mode = iota
	// ModeEmbed displays an externally hosted page, no fetch or auto-advance
	ModeEmbed
)

// Phase is the playback lifecycle state
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseSlowLoading
	PhaseReady
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSlowLoading:
		return "slow_loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON emits the phase name; displays match on the string form.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

const (
	// DefaultIntervalSeconds is used when the requested interval is missing or not numeric
	DefaultIntervalSeconds = 5
	// MinIntervalSeconds and MaxIntervalSeconds bound the per-slide interval
	MinIntervalSeconds = 1
	MaxIntervalSeconds = 300

	// slowLoadingAfter is how long the slide fetch may stay outstanding before
	// the player surfaces the slow-loading hint. The fetch itself is not cancelled.
	slowLoadingAfter = 12 * time.Second

	genericFetchHint = "Could not load slides. Is the backend running?"
	emptySlidesHint  = "The presentation produced no slides. Is the backend converter running?"
)

// ProviderError carries a server-supplied detail message alongside the transport error.
type ProviderError struct {
	Detail string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "slide provider error"
}

func (e *ProviderError) Unwrap() error { return e.Err }

// SlideFetcher obtains the ordered slide list for a file-backed presentation.
type SlideFetcher interface {
	FetchSlides(ctx context.Context, source string) ([]string, error)
}

// Config describes one presentation. Immutable once the player starts;
// a new presentation requires a new Player.
type Config struct {
	Mode   Mode
	Source string
	// IntervalSeconds is the requested seconds per slide. Accepts whatever the
	// admin console sent (number, string, nil); out-of-range or non-numeric
	// values are silently corrected.
	IntervalSeconds any
	// OnClose is invoked when a viewer dismisses the presentation. Optional.
	OnClose func()
}

// State is a snapshot of playback, safe to hand to listeners.
type State struct {
	Phase       Phase    `json:"phase"`
	Slides      []string `json:"slides,omitempty"`
	Index       int      `json:"index"`
	Message     string   `json:"message,omitempty"`
	EmbedTarget string   `json:"embed_target,omitempty"`
}

// Listener receives a state snapshot after every transition.
type Listener func(State)

// Player drives a single kiosk presentation: it fetches the slide list once,
// advances through it on a timer, and collapses every failure into an
// absorbing error state.
type Player struct {
	mu      sync.Mutex
	cfg     Config
	fetcher SlideFetcher

	interval    time.Duration
	phase       Phase
	slides      []string
	index       int
	message     string
	embedTarget string

	listener  Listener
	slowTimer *time.Timer
	advanceCh chan struct{} // closed to stop the advance loop
	stopped   bool
	closeOnce sync.Once

	slowAfter time.Duration // overridable in tests
}

// New creates a player for the given presentation. The fetcher is only used
// in ModeFile and may be nil for ModeEmbed.
func New(cfg Config, fetcher SlideFetcher) *Player {
	return &Player{
		cfg:       cfg,
		fetcher:   fetcher,
		interval:  NormalizeInterval(cfg.IntervalSeconds),
		phase:     PhaseLoading,
		slowAfter: slowLoadingAfter,
	}
}

// SetListener registers the state change callback. Must be called before Start.
func (p *Player) SetListener(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = l
}

// Start begins playback. In ModeEmbed the player is immediately ready; in
// ModeFile it issues exactly one slide fetch and reports progress through
// phase transitions. Start does not block.
func (p *Player) Start(ctx context.Context) {
	if p.cfg.Mode == ModeEmbed {
		p.mu.Lock()
		p.embedTarget = NormalizeEmbedSource(p.cfg.Source)
		p.phase = PhaseReady
		p.notifyLocked()
		p.mu.Unlock()
		return
	}

	p.mu.Lock()
	p.phase = PhaseLoading
	p.slowTimer = time.AfterFunc(p.slowAfter, p.markSlowLoading)
	p.notifyLocked()
	p.mu.Unlock()

	go p.fetch(ctx)
}

func (p *Player) fetch(ctx context.Context) {
	slides, err := p.fetcher.FetchSlides(ctx, p.cfg.Source)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || p.phase == PhaseError {
		// A late-resolving fetch must not touch a dismounted or failed player;
		// the error phase only clears with a new presentation.
		return
	}
	p.stopSlowTimerLocked()

	if err != nil {
		p.failLocked(fetchMessage(err))
		return
	}
	if len(slides) == 0 {
		p.failLocked(emptySlidesHint)
		return
	}

	p.slides = slides
	p.index = 0
	p.phase = PhaseReady
	p.notifyLocked()
	p.startAdvanceLocked()
}

// markSlowLoading fires once from the slow-loading timer. It only applies while
// the fetch is still outstanding.
func (p *Player) markSlowLoading() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || p.phase != PhaseLoading {
		return
	}
	p.phase = PhaseSlowLoading
	p.notifyLocked()
}

// startAdvanceLocked starts the auto-advance loop. No timer runs for a single
// slide; the index stays at 0 forever.
func (p *Player) startAdvanceLocked() {
	if len(p.slides) <= 1 {
		return
	}
	p.stopAdvanceLocked()

	stop := make(chan struct{})
	p.advanceCh = stop
	period := p.tickPeriod()

	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.advance(stop)
			}
		}
	}()
}

// tickPeriod returns the advance period, never below one second.
func (p *Player) tickPeriod() time.Duration {
	if p.interval < time.Second {
		return time.Second
	}
	return p.interval
}

func (p *Player) advance(stop chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// Ignore ticks from a superseded loop or outside Ready
	if p.stopped || p.advanceCh != stop || p.phase != PhaseReady || len(p.slides) == 0 {
		return
	}
	p.index = (p.index + 1) % len(p.slides)
	p.notifyLocked()
}

// Advance moves to the next slide immediately, wrapping around. Used by
// operator "next" controls; a no-op outside Ready.
func (p *Player) Advance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || p.phase != PhaseReady || len(p.slides) == 0 {
		return
	}
	p.index = (p.index + 1) % len(p.slides)
	p.notifyLocked()
}

// SetInterval changes the per-slide interval and restarts the advance timer so
// the new period takes effect from a full interval, avoiding drift.
func (p *Player) SetInterval(seconds any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.interval = NormalizeInterval(seconds)
	if p.phase == PhaseReady {
		p.startAdvanceLocked()
	}
}

// RenderFailed reports that a slide image failed to load. Fail-stop: the whole
// player moves to the error phase rather than skipping the broken slide.
func (p *Player) RenderFailed(slide string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || p.phase == PhaseError {
		return
	}
	p.failLocked(fmt.Sprintf("slide failed to render: %s", slide))
}

// failLocked moves to the absorbing error phase and tears down timers.
func (p *Player) failLocked(msg string) {
	p.stopSlowTimerLocked()
	p.stopAdvanceLocked()
	p.phase = PhaseError
	p.message = msg
	p.notifyLocked()
}

// Close invokes the dismissal callback once. The host owns the actual teardown
// and is expected to call Stop.
func (p *Player) Close() {
	p.closeOnce.Do(func() {
		if p.cfg.OnClose != nil {
			p.cfg.OnClose()
		}
	})
}

// Stop tears down all timers and marks the player stopped. Late fetch results
// and pending timer callbacks become no-ops after Stop returns.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	p.stopSlowTimerLocked()
	p.stopAdvanceLocked()
}

func (p *Player) stopSlowTimerLocked() {
	if p.slowTimer != nil {
		p.slowTimer.Stop()
		p.slowTimer = nil
	}
}

func (p *Player) stopAdvanceLocked() {
	if p.advanceCh != nil {
		close(p.advanceCh)
		p.advanceCh = nil
	}
}

// State returns a snapshot of the current playback state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Player) stateLocked() State {
	slides := make([]string, len(p.slides))
	copy(slides, p.slides)
	return State{
		Phase:       p.phase,
		Slides:      slides,
		Index:       p.index,
		Message:     p.message,
		EmbedTarget: p.embedTarget,
	}
}

func (p *Player) notifyLocked() {
	if p.listener != nil {
		p.listener(p.stateLocked())
	}
}

// fetchMessage picks the most useful error text: a server-supplied detail,
// then the transport error, then a generic hint.
func fetchMessage(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Detail != "" {
		return pe.Detail
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return genericFetchHint
}

// NormalizeInterval converts a requested per-slide interval into a duration,
// clamping numeric input to [MinIntervalSeconds, MaxIntervalSeconds] and
// falling back to the default for anything that is not a finite number.
func NormalizeInterval(v any) time.Duration {
	seconds, ok := toFiniteSeconds(v)
	if !ok {
		seconds = DefaultIntervalSeconds
	}
	if seconds < MinIntervalSeconds {
		seconds = MinIntervalSeconds
	}
	if seconds > MaxIntervalSeconds {
		seconds = MaxIntervalSeconds
	}
	return time.Duration(seconds * float64(time.Second))
}

func toFiniteSeconds(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
