package domain

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Registry looks up mods on the portal.
type Registry interface {
	Mod(ctx context.Context, name string) (*Mod, error)
}

// Fetcher downloads one mod archive. The boolean collapses every failure
// cause; details go to the log sink only.
type Fetcher interface {
	Fetch(ctx context.Context, mod *Mod, force bool) bool
}

// Scanner enumerates mods already present in the local mods folder.
type Scanner interface {
	Installed() (map[string]*Mod, error)
}

// LogSink receives human-readable progress lines. Implementations must not
// block for long; they are called inline from resolve and download paths.
type LogSink func(msg string)

// SafeLogSink guards a caller-supplied log sink: a panicking callback is
// logged and swallowed. A UI bug must never abort the resolve or download
// that emitted the line.
func SafeLogSink(sink LogSink) LogSink {
	if sink == nil {
		return func(string) {}
	}
	return func(msg string) {
		defer func() {
			if r := recover(); r != nil {
				logrus.Warnf("log sink panicked: %v", r)
			}
		}()
		sink(msg)
	}
}

// ModProgressSink receives per-mod status updates during a batch download.
type ModProgressSink func(name, status string, pct int)

// OverallProgressSink receives aggregate completion counts.
type OverallProgressSink func(completed, total int)
