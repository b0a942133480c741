package downloader

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modport/modport/internal/domain"
	"github.com/modport/modport/internal/resolver"
)

// graphResolver resolves from a canned graph, absorbing unknown names the
// way the real resolver does.
type graphResolver struct {
	mods map[string]*domain.Mod
}

func (g *graphResolver) Resolve(_ context.Context, name string, includeOptional bool, visited map[string]bool) resolver.Result {
	result := resolver.Result{Mods: make(map[string]*domain.Mod)}
	if visited == nil {
		visited = make(map[string]bool)
	}
	g.walk(name, includeOptional, visited, &result)
	return result
}

func (g *graphResolver) walk(name string, includeOptional bool, visited map[string]bool, result *resolver.Result) {
	if visited[name] {
		return
	}
	visited[name] = true

	mod, ok := g.mods[name]
	if !ok {
		return
	}
	result.Mods[name] = mod
	result.Incompatibilities = append(result.Incompatibilities, mod.IncompatibleDependencies...)
	result.Expansions = append(result.Expansions, mod.ExpansionDependencies...)

	deps := mod.Dependencies
	if includeOptional {
		deps = append(append([]string{}, deps...), mod.OptionalDependencies...)
	}
	for _, dep := range deps {
		g.walk(dep, includeOptional, visited, result)
	}
}

type fakeFetcher struct {
	mu      sync.Mutex
	fetched []string
	fail    map[string]bool
	panics  map[string]bool
}

func (f *fakeFetcher) Fetch(_ context.Context, mod *domain.Mod, _ bool) bool {
	f.mu.Lock()
	f.fetched = append(f.fetched, mod.Name)
	f.mu.Unlock()
	if f.panics[mod.Name] {
		panic("fetch blew up")
	}
	return !f.fail[mod.Name]
}

type fakeScanner struct {
	installed map[string]*domain.Mod
}

func (s *fakeScanner) Installed() (map[string]*domain.Mod, error) {
	return s.installed, nil
}

func discard(string) {}

func TestDownloadAllPartialBatchResilience(t *testing.T) {
	res := &graphResolver{mods: map[string]*domain.Mod{
		"good": {Name: "good", Version: "1.0.0"},
	}}
	fetcher := &fakeFetcher{}
	d := New(res, fetcher, &fakeScanner{}, 2, discard)

	downloaded, failed := d.DownloadAll(context.Background(), []string{"good", "bad"}, false)

	require.Len(t, downloaded, 1)
	assert.Equal(t, "good", downloaded[0].Name)
	assert.Equal(t, []string{"bad"}, failed)
}

func TestDownloadAllMergesClosuresOnce(t *testing.T) {
	shared := &domain.Mod{Name: "shared", Version: "1.0.0"}
	res := &graphResolver{mods: map[string]*domain.Mod{
		"a":      {Name: "a", Version: "1.0.0", Dependencies: []string{"shared"}},
		"b":      {Name: "b", Version: "2.0.0", Dependencies: []string{"shared"}},
		"shared": shared,
	}}
	fetcher := &fakeFetcher{}
	d := New(res, fetcher, &fakeScanner{}, 2, discard)

	downloaded, failed := d.DownloadAll(context.Background(), []string{"a", "b"}, false)

	assert.Empty(t, failed)
	assert.Len(t, downloaded, 3)

	counts := make(map[string]int)
	for _, name := range fetcher.fetched {
		counts[name]++
	}
	assert.Equal(t, 1, counts["shared"], "shared dependency must be fetched once")
}

func TestDownloadAllFetchFailureIsContained(t *testing.T) {
	res := &graphResolver{mods: map[string]*domain.Mod{
		"a": {Name: "a", Version: "1.0.0"},
		"b": {Name: "b", Version: "1.0.0"},
		"c": {Name: "c", Version: "1.0.0"},
	}}
	fetcher := &fakeFetcher{fail: map[string]bool{"b": true}, panics: map[string]bool{"c": true}}
	d := New(res, fetcher, &fakeScanner{}, 2, discard)

	downloaded, failed := d.DownloadAll(context.Background(), []string{"a", "b", "c"}, false)

	require.Len(t, downloaded, 1)
	assert.Equal(t, "a", downloaded[0].Name)
	assert.ElementsMatch(t, []string{"b", "c"}, failed)
}

func TestDownloadAllProgressSinks(t *testing.T) {
	res := &graphResolver{mods: map[string]*domain.Mod{
		"a": {Name: "a", Version: "1.0.0"},
		"b": {Name: "b", Version: "1.0.0"},
	}}
	d := New(res, &fakeFetcher{}, &fakeScanner{}, 1, discard)

	var statuses []string
	var aggregates [][2]int
	d.SetModProgressSink(func(name, status string, pct int) {
		statuses = append(statuses, name+":"+status)
	})
	d.SetOverallProgressSink(func(completed, total int) {
		aggregates = append(aggregates, [2]int{completed, total})
	})

	downloaded, failed := d.DownloadAll(context.Background(), []string{"a", "b"}, false)
	require.Len(t, downloaded, 2)
	assert.Empty(t, failed)

	assert.Contains(t, statuses, "a:⏳ Starting...")
	assert.Contains(t, statuses, "a:✓ Downloaded")
	assert.Contains(t, statuses, "b:✓ Downloaded")
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, aggregates)
}

func TestDownloadAllPanickingSinkDoesNotAbort(t *testing.T) {
	res := &graphResolver{mods: map[string]*domain.Mod{
		"a": {Name: "a", Version: "1.0.0"},
	}}
	d := New(res, &fakeFetcher{}, &fakeScanner{}, 1, discard)
	d.SetModProgressSink(func(string, string, int) { panic("ui bug") })
	d.SetOverallProgressSink(func(int, int) { panic("ui bug") })

	downloaded, failed := d.DownloadAll(context.Background(), []string{"a"}, false)
	assert.Len(t, downloaded, 1)
	assert.Empty(t, failed)
}

func TestDownloadAllPanickingLogSinkDoesNotAbort(t *testing.T) {
	res := &graphResolver{mods: map[string]*domain.Mod{
		"a": {Name: "a", Version: "1.0.0"},
	}}
	d := New(res, &fakeFetcher{}, &fakeScanner{}, 1, func(string) { panic("ui bug in log sink") })

	downloaded, failed := d.DownloadAll(context.Background(), []string{"a"}, false)
	assert.Len(t, downloaded, 1)
	assert.Empty(t, failed)
}

func TestDownloadAllWarnings(t *testing.T) {
	res := &graphResolver{mods: map[string]*domain.Mod{
		"a": {
			Name:                     "a",
			Version:                  "1.0.0",
			IncompatibleDependencies: []string{"rival"},
			ExpansionDependencies:    []string{"space-age"},
		},
	}}
	scanner := &fakeScanner{installed: map[string]*domain.Mod{
		"rival": {Name: "rival", Version: "0.5.0"},
	}}

	var logged []string
	d := New(res, &fakeFetcher{}, scanner, 1, func(msg string) { logged = append(logged, msg) })

	_, failed := d.DownloadAll(context.Background(), []string{"a"}, false)
	assert.Empty(t, failed)

	all := strings.Join(logged, "\n")
	assert.Contains(t, all, "Incompatible mods detected")
	assert.Contains(t, all, "rival (installed)")
	assert.Contains(t, all, "space-age")
}
