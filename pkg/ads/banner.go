package ads

import (
	"errors"
	"time"

	"github.com/AccelByte/extend-ads-policy/pkg/clock"
	"github.com/AccelByte/extend-ads-policy/pkg/placement"
	"github.com/AccelByte/extend-ads-policy/pkg/policy"
	"github.com/AccelByte/extend-ads-policy/pkg/provider"
	"github.com/sirupsen/logrus"
)

// BannerManagerConfig wires a banner manager to its collaborators.
type BannerManagerConfig struct {
	Engine     *policy.Engine
	Provider   provider.Provider
	Clock      clock.Clock
	Sink       Sink
	Placements *placement.Config
	Listener   BannerListener

	// Dispatch serializes backend callbacks onto the control goroutine.
	Dispatch func(func())
}

// bannerSlot is the live state of one screen's banner position. The token
// invalidates load callbacks that arrive after the screen was left or
// re-entered.
type bannerSlot struct {
	token  uint64
	handle provider.Handle
}

// BannerManager requests one banner per screen entry. There is no frequency
// cap and no retry: a screen that gets no fill collapses its slot and stays
// collapsed until the next entry. It is confined to the control goroutine.
type BannerManager struct {
	cfg   BannerManagerConfig
	slots map[string]*bannerSlot
}

// NewBannerManager creates a banner manager with no active slots.
func NewBannerManager(cfg BannerManagerConfig) (*BannerManager, error) {
	if cfg.Engine == nil {
		return nil, errors.New("banner manager requires a policy engine")
	}
	if cfg.Provider == nil {
		return nil, errors.New("banner manager requires a provider")
	}
	if cfg.Clock == nil {
		return nil, errors.New("banner manager requires a clock")
	}
	if cfg.Placements == nil {
		return nil, errors.New("banner manager requires a placement table")
	}

	return &BannerManager{
		cfg:   cfg,
		slots: make(map[string]*bannerSlot),
	}, nil
}

// EnterScreen runs the banner decision for a screen the user just entered.
// Re-entering a screen abandons the previous slot and requests fresh.
func (b *BannerManager) EnterScreen(screen string) {
	b.emit(Event{Kind: KindOpportunity, Screen: screen, Context: screen})

	// A fresh entry always invalidates whatever the slot held
	slot := b.resetSlot(screen)

	if !b.cfg.Engine.CanShowBanner(screen) {
		b.emit(Event{Kind: KindSkipped, Screen: screen, Reason: SkipReasonDisabled})
		b.collapse(screen)
		return
	}

	pl, ok := b.cfg.Placements.BannerFor(screen)
	if !ok {
		logrus.Warnf("no banner placement for screen %s", screen)
		b.collapse(screen)
		return
	}

	unit := pl.AdUnitFor(b.cfg.Engine.TestMode())
	token := slot.token

	b.emit(Event{Kind: KindRequest, Screen: screen, AdUnit: unit})
	requestedAt := b.cfg.Clock.Now()

	b.cfg.Provider.Load(provider.Request{
		Format:  provider.FormatBanner,
		AdUnit:  unit,
		Size:    pl.Size,
		Context: screen,
	}, provider.LoadCallbacks{
		OnLoaded: func(h provider.Handle) {
			b.dispatch(func() { b.onLoaded(screen, unit, token, h, requestedAt) })
		},
		OnNoFill: func() {
			b.dispatch(func() { b.onNoFill(screen, unit, token) })
		},
		OnFailed: func(err error) {
			b.dispatch(func() { b.onLoadFailed(screen, unit, token, err) })
		},
	})
}

// LeaveScreen destroys the screen's banner handle, if any.
func (b *BannerManager) LeaveScreen(screen string) {
	slot, ok := b.slots[screen]
	if !ok {
		return
	}

	slot.token++
	if slot.handle != nil {
		b.cfg.Provider.Destroy(slot.handle)
		slot.handle = nil
		logrus.Debugf("banner destroyed on leaving screen %s", screen)
	}
	delete(b.slots, screen)
}

// ActiveScreens returns the screens that currently hold a filled banner.
func (b *BannerManager) ActiveScreens() []string {
	var screens []string
	for screen, slot := range b.slots {
		if slot.handle != nil {
			screens = append(screens, screen)
		}
	}
	return screens
}

// Shutdown destroys every held banner handle.
func (b *BannerManager) Shutdown() {
	for screen := range b.slots {
		b.LeaveScreen(screen)
	}
}

// resetSlot invalidates the screen's slot and returns it with a new token.
func (b *BannerManager) resetSlot(screen string) *bannerSlot {
	slot, ok := b.slots[screen]
	if !ok {
		slot = &bannerSlot{}
		b.slots[screen] = slot
	}

	slot.token++
	if slot.handle != nil {
		b.cfg.Provider.Destroy(slot.handle)
		slot.handle = nil
	}
	return slot
}

// collapse tells the screen to give its banner slot zero size. Never
// hide-but-reserve: an empty slot must not leave a gap.
func (b *BannerManager) collapse(screen string) {
	if b.cfg.Listener != nil {
		b.cfg.Listener.BannerCollapsed(screen)
	}
}

func (b *BannerManager) dispatch(fn func()) {
	if b.cfg.Dispatch != nil {
		b.cfg.Dispatch(fn)
		return
	}
	fn()
}

func (b *BannerManager) emit(ev Event) {
	ev.Format = provider.FormatBanner
	ev.At = b.cfg.Clock.Now()
	if b.cfg.Sink != nil {
		b.cfg.Sink.Record(ev)
	}
}

func (b *BannerManager) onLoaded(screen, unit string, token uint64, h provider.Handle, requestedAt time.Time) {
	slot, ok := b.slots[screen]
	if !ok || slot.token != token {
		// The user left or re-entered before the fill arrived
		b.cfg.Provider.Destroy(h)
		return
	}

	slot.handle = h
	b.emit(Event{Kind: KindFill, Screen: screen, AdUnit: unit, Duration: b.cfg.Clock.Now().Sub(requestedAt)})

	b.cfg.Provider.Show(h, screen, provider.ShowCallbacks{
		OnStarted: func() {
			b.dispatch(func() { b.onShown(screen, unit, token) })
		},
		OnClicked: func() {
			b.dispatch(func() { b.emit(Event{Kind: KindClick, Screen: screen, AdUnit: unit}) })
		},
		OnDismissed: func() {
			b.dispatch(func() { b.emit(Event{Kind: KindClose, Screen: screen, AdUnit: unit}) })
		},
		OnFailed: func(err error) {
			b.dispatch(func() { b.onShowFailed(screen, unit, token, err) })
		},
	})
}

func (b *BannerManager) onShown(screen, unit string, token uint64) {
	slot, ok := b.slots[screen]
	if !ok || slot.token != token {
		return
	}

	b.emit(Event{Kind: KindImpression, Screen: screen, AdUnit: unit})
	if b.cfg.Listener != nil {
		b.cfg.Listener.BannerFilled(screen)
	}
}

func (b *BannerManager) onNoFill(screen, unit string, token uint64) {
	slot, ok := b.slots[screen]
	if !ok || slot.token != token {
		return
	}

	b.emit(Event{Kind: KindNoFill, Screen: screen, AdUnit: unit})
	b.collapse(screen)
}

func (b *BannerManager) onLoadFailed(screen, unit string, token uint64, err error) {
	slot, ok := b.slots[screen]
	if !ok || slot.token != token {
		return
	}

	b.emit(Event{Kind: KindError, Screen: screen, AdUnit: unit, Op: "load", Err: err})
	b.collapse(screen)
}

func (b *BannerManager) onShowFailed(screen, unit string, token uint64, err error) {
	slot, ok := b.slots[screen]
	if !ok || slot.token != token {
		return
	}

	if slot.handle != nil {
		b.cfg.Provider.Destroy(slot.handle)
		slot.handle = nil
	}
	b.emit(Event{Kind: KindError, Screen: screen, AdUnit: unit, Op: "show", Err: err})
	b.collapse(screen)
}
