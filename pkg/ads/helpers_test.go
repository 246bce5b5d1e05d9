package ads_test

import (
	"context"
	"testing"
	"time"

	"github.com/AccelByte/extend-ads-policy/pkg/ads"
	"github.com/AccelByte/extend-ads-policy/pkg/policy"
	policymock "github.com/AccelByte/extend-ads-policy/pkg/policy/mock"
)

const testProfileID = "test-profile"

// captureSink records every ad event for assertions.
type captureSink struct {
	events []ads.Event
}

func (s *captureSink) Record(ev ads.Event) {
	s.events = append(s.events, ev)
}

// kinds returns the recorded event kinds in order.
func (s *captureSink) kinds() []ads.Kind {
	var kinds []ads.Kind
	for _, ev := range s.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

// last returns the most recent event, or a zero event if none happened.
func (s *captureSink) last() ads.Event {
	if len(s.events) == 0 {
		return ads.Event{}
	}
	return s.events[len(s.events)-1]
}

// has reports whether any event of the given kind was recorded.
func (s *captureSink) has(kind ads.Kind) bool {
	for _, ev := range s.events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

// fakePlayback records playback hand-offs.
type fakePlayback struct {
	pauses   int
	proceeds []string
}

func (p *fakePlayback) PauseContent() {
	p.pauses++
}

func (p *fakePlayback) ProceedWithContent(episodeID string) {
	p.proceeds = append(p.proceeds, episodeID)
}

// fakeBannerListener records per-screen visibility changes.
type fakeBannerListener struct {
	filled    []string
	collapsed []string
}

func (l *fakeBannerListener) BannerFilled(screen string) {
	l.filled = append(l.filled, screen)
}

func (l *fakeBannerListener) BannerCollapsed(screen string) {
	l.collapsed = append(l.collapsed, screen)
}

// newTestEngine builds an engine over a fresh mock store. The state starts
// empty; tests shape it through the engine's own recording methods.
func newTestEngine(t *testing.T, cfg policy.Config, store *policymock.SessionStore) *policy.Engine {
	t.Helper()

	engine, err := policy.NewEngine(context.Background(), store, policymock.NewStaticConfig(cfg), policy.EngineConfig{
		ProfileID:      testProfileID,
		SessionTimeout: 30 * time.Minute,
	})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return engine
}
