// Package resolver computes the transitive dependency closure of a mod.
package resolver

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/modport/modport/internal/domain"
)

// Resolver walks required (and optionally optional) dependency edges through
// the portal. It is a reachability computation, not a constraint solver:
// every lookup takes the latest release and no choice is ever revisited.
type Resolver struct {
	registry domain.Registry
	log      domain.LogSink
}

func New(registry domain.Registry, log domain.LogSink) *Resolver {
	if log == nil {
		log = func(msg string) { logrus.Info(msg) }
	}
	return &Resolver{
		registry: registry,
		log:      domain.SafeLogSink(log),
	}
}

// Result holds one resolve's accumulated output. Incompatibilities and
// Expansions are facts about members of the closure; they are never recursed
// into.
type Result struct {
	Mods              map[string]*domain.Mod
	Incompatibilities []string
	Expansions        []string
}

// Resolve returns the dependency closure of name. The visited set is shared
// across the whole recursion (pass nil at the top level): a name is
// processed at most once, which terminates cycles and collapses diamonds. A
// failed branch is logged and skipped; it never aborts its siblings.
func (r *Resolver) Resolve(ctx context.Context, name string, includeOptional bool, visited map[string]bool) Result {
	result := Result{Mods: make(map[string]*domain.Mod)}
	if visited == nil {
		visited = make(map[string]bool)
	}
	r.resolve(ctx, name, includeOptional, visited, &result)
	return result
}

func (r *Resolver) resolve(ctx context.Context, name string, includeOptional bool, visited map[string]bool, result *Result) {
	if visited[name] {
		return
	}
	visited[name] = true

	r.log(fmt.Sprintf("Resolving dependencies for %s...", name))

	mod, err := r.registry.Mod(ctx, name)
	if err != nil {
		r.log(fmt.Sprintf("Error: could not resolve %s: %v", name, err))
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
		r.resolve(ctx, dep, includeOptional, visited, result)
	}
}
