// Package downloader orchestrates resolving mods and fanning their archives
// out to a bounded pool of concurrent fetches.
package downloader

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/modport/modport/internal/domain"
	"github.com/modport/modport/internal/resolver"
)

const DefaultMaxParallel = 4

type depResolver interface {
	Resolve(ctx context.Context, name string, includeOptional bool, visited map[string]bool) resolver.Result
}

// Downloader merges the closures of one or more requested mods, reports
// warnings, and downloads every resolved archive. Resolution is sequential
// (metadata is cheap); fetches run on a bounded worker pool.
type Downloader struct {
	resolver    depResolver
	fetcher     domain.Fetcher
	scanner     domain.Scanner
	maxParallel int

	log         domain.LogSink
	modProgress domain.ModProgressSink
	overall     domain.OverallProgressSink
}

func New(res depResolver, fetcher domain.Fetcher, scanner domain.Scanner, maxParallel int, log domain.LogSink) *Downloader {
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallel
	}
	if log == nil {
		log = func(msg string) { logrus.Info(msg) }
	}
	return &Downloader{
		resolver:    res,
		fetcher:     fetcher,
		scanner:     scanner,
		maxParallel: maxParallel,
		log:         domain.SafeLogSink(log),
	}
}

// SetModProgressSink registers a per-mod status sink.
func (d *Downloader) SetModProgressSink(sink domain.ModProgressSink) {
	d.modProgress = sink
}

// SetOverallProgressSink registers an aggregate (completed, total) sink.
func (d *Downloader) SetOverallProgressSink(sink domain.OverallProgressSink) {
	d.overall = sink
}

// completion is one fetch outcome, pushed by a worker and drained by the
// orchestrating goroutine. Workers never touch shared state or sinks.
type completion struct {
	mod *domain.Mod
	ok  bool
}

// DownloadAll resolves every requested mod, warns about incompatibilities
// and expansion requirements, then downloads the whole merged closure. One
// failed root or fetch never aborts the rest of the batch. The call blocks
// until every submitted fetch has completed.
func (d *Downloader) DownloadAll(ctx context.Context, names []string, includeOptional bool) (downloaded []*domain.Mod, failed []string) {
	merged := make(map[string]*domain.Mod)
	incompat := make(map[string]bool)
	expansions := make(map[string]bool)

	for _, name := range names {
		result := d.resolver.Resolve(ctx, name, includeOptional, nil)

		if _, ok := result.Mods[name]; !ok {
			d.log(fmt.Sprintf("Error resolving %s", name))
			failed = append(failed, name)
		}

		// first-write-wins: an earlier root's record is authoritative
		for depName, mod := range result.Mods {
			if _, ok := merged[depName]; !ok {
				merged[depName] = mod
			}
		}
		for _, n := range result.Incompatibilities {
			incompat[n] = true
		}
		for _, n := range result.Expansions {
			expansions[n] = true
		}
	}

	d.reportWarnings(merged, incompat, expansions)

	plan := make([]*domain.Mod, 0, len(merged))
	for _, name := range sortedKeys(merged) {
		plan = append(plan, merged[name])
	}

	d.log(fmt.Sprintf("📦 To download: %d mods", len(plan)))
	for _, mod := range plan {
		deps := len(mod.Dependencies) + len(mod.OptionalDependencies)
		if deps > 0 {
			d.log(fmt.Sprintf("  - %s (%d deps)", mod.Name, deps))
		} else {
			d.log(fmt.Sprintf("  - %s", mod.Name))
		}
		d.notifyMod(mod.Name, "⏳ Starting...", 0)
	}

	done, fails := d.fetchAll(ctx, plan)
	return done, append(failed, fails...)
}

// fetchAll runs one fetch per mod on a bounded pool. Workers push completion
// events onto a channel; a single consumer drains it and invokes the sinks,
// so caller-supplied callbacks never run on a worker goroutine.
func (d *Downloader) fetchAll(ctx context.Context, plan []*domain.Mod) (downloaded []*domain.Mod, failed []string) {
	if len(plan) == 0 {
		return nil, nil
	}

	events := make(chan completion, len(plan))

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		completed := 0
		for ev := range events {
			completed++
			if ev.ok {
				downloaded = append(downloaded, ev.mod)
				d.notifyMod(ev.mod.Name, "✓ Downloaded", 100)
			} else {
				failed = append(failed, ev.mod.Name)
				d.notifyMod(ev.mod.Name, "✗ Failed", 0)
			}
			d.notifyOverall(completed, len(plan))
		}
	}()

	g := &errgroup.Group{}
	g.SetLimit(d.maxParallel)
	for _, mod := range plan {
		mod := mod
		g.Go(func() error {
			events <- completion{mod: mod, ok: d.safeFetch(ctx, mod)}
			return nil
		})
	}
	_ = g.Wait()
	close(events)
	<-consumerDone

	return downloaded, failed
}

// safeFetch contains a panicking fetch to its own item.
func (d *Downloader) safeFetch(ctx context.Context, mod *domain.Mod) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.log(fmt.Sprintf("Error downloading %s: %v", mod.Name, r))
			ok = false
		}
	}()
	return d.fetcher.Fetch(ctx, mod, false)
}

func (d *Downloader) reportWarnings(merged map[string]*domain.Mod, incompat, expansions map[string]bool) {
	if len(incompat) > 0 {
		d.log("⚠ Incompatible mods detected (cannot coexist):")
		for _, name := range sortedKeys(incompat) {
			d.log(fmt.Sprintf("  - %s", name))
		}
		d.log("  These mods conflict with selected mods.")
	}

	var conflicts []string
	if d.scanner != nil {
		installed, err := d.scanner.Installed()
		if err != nil {
			d.log(fmt.Sprintf("Error scanning installed mods: %v", err))
		}
		for name := range incompat {
			if _, ok := installed[name]; ok {
				conflicts = append(conflicts, name+" (installed)")
			}
		}
	}
	// a resolved mod that another resolved mod declares incompatible is a
	// live conflict too, not just a hypothetical one
	for name := range incompat {
		if _, ok := merged[name]; ok {
			conflicts = append(conflicts, name+" (selected)")
		}
	}
	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		d.log("⚠ WARNING: live conflicts detected:")
		for _, name := range conflicts {
			d.log(fmt.Sprintf("  ⚠ %s", name))
		}
		d.log("  Installing may cause issues. Proceed with caution!")
	}

	if len(expansions) > 0 {
		d.log("💿 Required DLC expansions:")
		for _, name := range sortedKeys(expansions) {
			d.log(fmt.Sprintf("  - %s", name))
		}
		d.log("  Note: these must be purchased and installed manually")
	}
}

// notifyMod and notifyOverall guard the caller-supplied sinks: a UI bug must
// not abort a batch in progress.
func (d *Downloader) notifyMod(name, status string, pct int) {
	if d.modProgress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logrus.Warnf("mod progress sink panicked: %v", r)
		}
	}()
	d.modProgress(name, status, pct)
}

func (d *Downloader) notifyOverall(completed, total int) {
	if d.overall == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logrus.Warnf("overall progress sink panicked: %v", r)
		}
	}()
	d.overall(completed, total)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
