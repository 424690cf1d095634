package player

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFetcher returns a canned slide list, optionally blocking until released.
type stubFetcher struct {
	slides  []string
	err     error
	release chan struct{} // when non-nil, FetchSlides blocks until closed
}

func (f *stubFetcher) FetchSlides(_ context.Context, _ string) ([]string, error) {
	if f.release != nil {
		<-f.release
	}
	return f.slides, f.err
}

// recorder collects every state the player reports.
type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) listen(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) phases() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Phase, len(r.states))
	for i, s := range r.states {
		out[i] = s.Phase
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func waitForPhase(t *testing.T, p *Player, want Phase) State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for phase %v, got %v", want, p.State().Phase)
		default:
		}
		if s := p.State(); s.Phase == want {
			return s
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNormalizeInterval(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  time.Duration
	}{
		{name: "zero clamps to minimum", input: 0, want: time.Second},
		{name: "too large clamps to maximum", input: 1000, want: 300 * time.Second},
		{name: "negative clamps to minimum", input: -7, want: time.Second},
		{name: "in range passes through", input: 30, want: 30 * time.Second},
		{name: "float in range", input: 2.5, want: 2500 * time.Millisecond},
		{name: "numeric string parses", input: "12", want: 12 * time.Second},
		{name: "non-numeric string falls back to default", input: "abc", want: 5 * time.Second},
		{name: "nil falls back to default", input: nil, want: 5 * time.Second},
		{name: "NaN falls back to default", input: math.NaN(), want: 5 * time.Second},
		{name: "infinity falls back to default", input: math.Inf(1), want: 5 * time.Second},
		{name: "bool falls back to default", input: true, want: 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeInterval(tt.input))
		})
	}
}

func TestTickPeriodFloor(t *testing.T) {
	p := New(Config{Mode: ModeFile}, nil)
	p.interval = 200 * time.Millisecond
	assert.Equal(t, time.Second, p.tickPeriod())

	p.interval = 3 * time.Second
	assert.Equal(t, 3*time.Second, p.tickPeriod())
}

func TestFileMode_FetchSuccess(t *testing.T) {
	fetcher := &stubFetcher{slides: []string{"a.png", "b.png", "c.png"}}
	p := New(Config{Mode: ModeFile, Source: "deck", IntervalSeconds: 60}, fetcher)
	defer p.Stop()

	p.Start(context.Background())
	s := waitForPhase(t, p, PhaseReady)

	assert.Equal(t, []string{"a.png", "b.png", "c.png"}, s.Slides)
	assert.Equal(t, 0, s.Index)
}

func TestFileMode_AdvanceWrapsAround(t *testing.T) {
	fetcher := &stubFetcher{slides: []string{"a.png", "b.png", "c.png"}}
	p := New(Config{Mode: ModeFile, Source: "deck", IntervalSeconds: 300}, fetcher)
	defer p.Stop()

	p.Start(context.Background())
	waitForPhase(t, p, PhaseReady)

	p.Advance()
	assert.Equal(t, 1, p.State().Index)
	p.Advance()
	assert.Equal(t, 2, p.State().Index)
	p.Advance()
	assert.Equal(t, 0, p.State().Index, "index wraps back to the first slide")
}

func TestFileMode_TimerAdvances(t *testing.T) {
	fetcher := &stubFetcher{slides: []string{"a.png", "b.png"}}
	p := New(Config{Mode: ModeFile, Source: "deck", IntervalSeconds: 1}, fetcher)
	defer p.Stop()

	p.Start(context.Background())
	waitForPhase(t, p, PhaseReady)
	assert.Equal(t, 0, p.State().Index, "first slide shows for a full interval before the first advance")

	deadline := time.After(3 * time.Second)
	for p.State().Index == 0 {
		select {
		case <-deadline:
			t.Fatal("advance timer never fired")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	assert.Equal(t, 1, p.State().Index)
}

func TestFileMode_SingleSlideNeverStartsTimer(t *testing.T) {
	fetcher := &stubFetcher{slides: []string{"only.png"}}
	p := New(Config{Mode: ModeFile, Source: "deck", IntervalSeconds: 1}, fetcher)
	defer p.Stop()

	p.Start(context.Background())
	waitForPhase(t, p, PhaseReady)

	p.mu.Lock()
	assert.Nil(t, p.advanceCh, "no advance loop for a single slide")
	p.mu.Unlock()

	p.Advance()
	assert.Equal(t, 0, p.State().Index, "a single slide never leaves index 0")
}

func TestFileMode_EmptySlideListIsError(t *testing.T) {
	fetcher := &stubFetcher{slides: []string{}}
	p := New(Config{Mode: ModeFile, Source: "deck"}, fetcher)
	defer p.Stop()

	p.Start(context.Background())
	s := waitForPhase(t, p, PhaseError)
	assert.Contains(t, s.Message, "backend", "empty result should hint at the missing backend dependency")
}

func TestFileMode_FetchErrorMessagePreference(t *testing.T) {
	t.Run("server detail wins", func(t *testing.T) {
		fetcher := &stubFetcher{err: &ProviderError{Detail: "PPT upload is disabled", Err: errors.New("status 400")}}
		p := New(Config{Mode: ModeFile, Source: "deck"}, fetcher)
		defer p.Stop()

		p.Start(context.Background())
		s := waitForPhase(t, p, PhaseError)
		assert.Equal(t, "PPT upload is disabled", s.Message)
	})

	t.Run("transport error when no detail", func(t *testing.T) {
		fetcher := &stubFetcher{err: errors.New("connection refused")}
		p := New(Config{Mode: ModeFile, Source: "deck"}, fetcher)
		defer p.Stop()

		p.Start(context.Background())
		s := waitForPhase(t, p, PhaseError)
		assert.Equal(t, "connection refused", s.Message)
	})
}

func TestFileMode_SlowLoadingTransition(t *testing.T) {
	fetcher := &stubFetcher{slides: []string{"a.png", "b.png"}, release: make(chan struct{})}
	p := New(Config{Mode: ModeFile, Source: "deck", IntervalSeconds: 60}, fetcher)
	p.slowAfter = 20 * time.Millisecond
	defer p.Stop()

	rec := &recorder{}
	p.SetListener(rec.listen)

	p.Start(context.Background())
	waitForPhase(t, p, PhaseSlowLoading)

	// A late success still lands in Ready, with no intermediate phase skipped
	close(fetcher.release)
	waitForPhase(t, p, PhaseReady)

	assert.Equal(t, []Phase{PhaseLoading, PhaseSlowLoading, PhaseReady}, rec.phases())
}

func TestFileMode_SlowLoadingFiresOnce(t *testing.T) {
	fetcher := &stubFetcher{slides: []string{"a.png"}, release: make(chan struct{})}
	p := New(Config{Mode: ModeFile, Source: "deck"}, fetcher)
	p.slowAfter = 10 * time.Millisecond
	defer p.Stop()

	rec := &recorder{}
	p.SetListener(rec.listen)

	p.Start(context.Background())
	waitForPhase(t, p, PhaseSlowLoading)
	time.Sleep(50 * time.Millisecond)

	slow := 0
	for _, ph := range rec.phases() {
		if ph == PhaseSlowLoading {
			slow++
		}
	}
	assert.Equal(t, 1, slow)
	close(fetcher.release)
}

func TestStopDuringLoadingSuppressesLateFetch(t *testing.T) {
	fetcher := &stubFetcher{slides: []string{"a.png", "b.png"}, release: make(chan struct{})}
	p := New(Config{Mode: ModeFile, Source: "deck"}, fetcher)

	rec := &recorder{}
	p.SetListener(rec.listen)

	p.Start(context.Background())
	p.Stop()
	before := rec.count()

	close(fetcher.release)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, before, rec.count(), "no state updates after Stop")
	assert.Equal(t, PhaseLoading, p.State().Phase)
}

func TestRenderFailureIsFailStop(t *testing.T) {
	fetcher := &stubFetcher{slides: []string{"a.png", "b.png"}}
	p := New(Config{Mode: ModeFile, Source: "deck", IntervalSeconds: 300}, fetcher)
	defer p.Stop()

	p.Start(context.Background())
	waitForPhase(t, p, PhaseReady)

	p.RenderFailed("b.png")
	s := p.State()
	assert.Equal(t, PhaseError, s.Phase)
	assert.Contains(t, s.Message, "b.png")

	// Error is absorbing: advancing is a no-op
	p.Advance()
	assert.Equal(t, PhaseError, p.State().Phase)
	assert.Equal(t, 0, p.State().Index)
}

func TestRenderFailureDuringLoadingSuppressesLateFetch(t *testing.T) {
	fetcher := &stubFetcher{slides: []string{"a.png", "b.png"}, release: make(chan struct{})}
	p := New(Config{Mode: ModeFile, Source: "deck"}, fetcher)
	defer p.Stop()

	rec := &recorder{}
	p.SetListener(rec.listen)

	p.Start(context.Background())

	// A stale display can report a render failure while the fetch is still
	// outstanding; the player fails immediately.
	p.RenderFailed("a.png")
	require.Equal(t, PhaseError, p.State().Phase)

	// The fetch resolving afterwards must not revive the player
	close(fetcher.release)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, PhaseError, p.State().Phase, "a late fetch success must not clear the error phase")
	assert.Empty(t, p.State().Slides)
	for _, ph := range rec.phases() {
		assert.NotEqual(t, PhaseReady, ph)
	}
}

func TestEmbedMode_NoFetchNoTimer(t *testing.T) {
	p := New(Config{Mode: ModeEmbed, Source: "https://example.com/report"}, nil)
	defer p.Stop()

	p.Start(context.Background())
	s := p.State()

	require.Equal(t, PhaseReady, s.Phase)
	assert.Equal(t, "https://example.com/report", s.EmbedTarget)

	p.mu.Lock()
	assert.Nil(t, p.advanceCh)
	assert.Nil(t, p.slowTimer)
	p.mu.Unlock()
}

func TestCloseInvokesCallbackOnce(t *testing.T) {
	calls := 0
	p := New(Config{Mode: ModeEmbed, Source: "https://example.com", OnClose: func() { calls++ }}, nil)
	defer p.Stop()

	p.Start(context.Background())
	p.Close()
	p.Close()

	assert.Equal(t, 1, calls)
	assert.Equal(t, PhaseReady, p.State().Phase, "dismissal performs no other state change")
}

func TestCloseWithoutCallback(t *testing.T) {
	p := New(Config{Mode: ModeEmbed, Source: "https://example.com"}, nil)
	defer p.Stop()

	p.Start(context.Background())
	assert.NotPanics(t, func() { p.Close() })
}

func TestSetIntervalRestartsTimer(t *testing.T) {
	fetcher := &stubFetcher{slides: []string{"a.png", "b.png"}}
	p := New(Config{Mode: ModeFile, Source: "deck", IntervalSeconds: 300}, fetcher)
	defer p.Stop()

	p.Start(context.Background())
	waitForPhase(t, p, PhaseReady)

	p.mu.Lock()
	old := p.advanceCh
	p.mu.Unlock()

	p.SetInterval(30)

	p.mu.Lock()
	assert.NotNil(t, p.advanceCh)
	assert.NotEqual(t, old, p.advanceCh, "interval change tears down and restarts the advance loop")
	assert.Equal(t, 30*time.Second, p.interval)
	p.mu.Unlock()
}
