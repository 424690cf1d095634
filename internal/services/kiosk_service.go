package services

import (
	"context"
	"log"
	"sync"

	"lobbycast/internal/models"
	"lobbycast/internal/player"
)

// KioskService runs the server-side presentation player for the active
// slideshow and fans its state out to connected displays. Starting a new
// slideshow replaces the running player; a presentation change always means a
// fresh mount.
type KioskService struct {
	mu        sync.Mutex
	current   *player.Player
	cancel    context.CancelFunc
	slideshow *SlideshowService
	hub       *WebSocketService
}

// NewKioskService creates a new kiosk service
func NewKioskService(slideshow *SlideshowService, hub *WebSocketService) *KioskService {
	return &KioskService{
		slideshow: slideshow,
		hub:       hub,
	}
}

// Play starts a player for the given slideshow state, replacing any running one
func (ks *KioskService) Play(state models.SlideshowState) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.stopLocked()

	mode := player.ModeFile
	if state.Type == models.SlideshowTypeURL {
		mode = player.ModeEmbed
	}

	p := player.New(player.Config{
		Mode:            mode,
		Source:          state.Source,
		IntervalSeconds: state.IntervalSeconds,
		OnClose: func() {
			log.Println("Presentation dismissed by a display")
		},
	}, ks.slideshow)

	p.SetListener(func(s player.State) {
		ks.hub.Broadcast(DisplayEvent{Type: "player", Payload: s})
	})

	ctx, cancel := context.WithCancel(context.Background())
	ks.current = p
	ks.cancel = cancel
	p.Start(ctx)

	ks.hub.Broadcast(DisplayEvent{Type: "slideshow", Payload: state})
}

// Stop tears down the running player, if any
func (ks *KioskService) Stop(state models.SlideshowState) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.stopLocked()
	ks.hub.Broadcast(DisplayEvent{Type: "slideshow", Payload: state})
}

func (ks *KioskService) stopLocked() {
	if ks.current != nil {
		ks.current.Stop()
		ks.current = nil
	}
	if ks.cancel != nil {
		ks.cancel()
		ks.cancel = nil
	}
}

// PlayerState returns the running player's state, or nil when idle
func (ks *KioskService) PlayerState() *player.State {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if ks.current == nil {
		return nil
	}
	s := ks.current.State()
	return &s
}

// ReportRenderFailure marks the current presentation broken. Displays call
// this when a slide image fails to load; the player fail-stops rather than
// skipping the slide.
func (ks *KioskService) ReportRenderFailure(slide string) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if ks.current != nil {
		ks.current.RenderFailed(slide)
	}
}
