package ads

import (
	"fmt"
	"strings"

	"github.com/AccelByte/extend-ads-policy/pkg/policy"
	"github.com/sirupsen/logrus"
)

// Sink receives ad events. Implementations must be fast and non-blocking;
// they run on the control goroutine.
type Sink interface {
	Record(ev Event)
}

// MultiSink fans one event out to several sinks in order.
type MultiSink []Sink

// Record implements Sink.
func (s MultiSink) Record(ev Event) {
	for _, sink := range s {
		sink.Record(ev)
	}
}

// LogSink writes ad events to the service log. Errors log at error level,
// no-fill and skips at warning level, and the rest at debug level, raised
// to info when debug logging is switched on in the policy config.
type LogSink struct {
	config policy.ConfigProvider
}

// NewLogSink creates a log sink. The config provider may be nil, in which
// case routine events stay at debug level.
func NewLogSink(config policy.ConfigProvider) *LogSink {
	return &LogSink{config: config}
}

// Record implements Sink.
func (s *LogSink) Record(ev Event) {
	msg := formatEvent(ev)

	switch ev.Kind {
	case KindError:
		logrus.Errorf("%s", msg)
	case KindNoFill, KindSkipped:
		logrus.Warnf("%s", msg)
	default:
		if s.config != nil && s.config.Effective().DebugLogging {
			logrus.Infof("%s", msg)
		} else {
			logrus.Debugf("%s", msg)
		}
	}
}

// formatEvent renders an event as a compact key=value line, skipping
// empty fields.
func formatEvent(ev Event) string {
	var b strings.Builder

	fmt.Fprintf(&b, "ad event: kind=%s format=%s", ev.Kind, ev.Format)
	if ev.AdUnit != "" {
		fmt.Fprintf(&b, " unit=%s", ev.AdUnit)
	}
	if ev.Screen != "" {
		fmt.Fprintf(&b, " screen=%s", ev.Screen)
	}
	if ev.Context != "" {
		fmt.Fprintf(&b, " context=%s", ev.Context)
	}
	if ev.Op != "" {
		fmt.Fprintf(&b, " op=%s", ev.Op)
	}
	if ev.Reason != "" {
		fmt.Fprintf(&b, " reason=%s", ev.Reason)
	}
	if ev.Duration > 0 {
		fmt.Fprintf(&b, " duration=%s", ev.Duration)
	}
	if ev.Err != nil {
		fmt.Fprintf(&b, " err=%q", ev.Err.Error())
	}

	return b.String()
}
