package magiskbuild

import (
	"slices"
	"strings"
)

// Target is a named native binary.
type Target string

const (
	TargetMagisk    Target = "magisk"
	TargetInit      Target = "magiskinit"
	TargetBoot      Target = "magiskboot"
	TargetPolicy    Target = "magiskpolicy"
	TargetBusyBox   Target = "busybox"
	TargetResetprop Target = "resetprop"
)

var (
	defaultTargets = []Target{TargetMagisk, TargetInit, TargetBoot, TargetPolicy, TargetBusyBox}
	// supportTargets doubles as the canonical iteration order.
	supportTargets = append(slices.Clone(defaultTargets), TargetResetprop)
	// rustTargets are the targets with a cargo crate of their own.
	rustTargets = []Target{TargetMagisk, TargetInit, TargetBoot, TargetPolicy}
	// managedDeps lists the cargo crates a target links against without
	// owning a crate itself.
	managedDeps = map[Target][]Target{
		TargetResetprop: {TargetMagisk},
	}
)

// TargetSet is an unordered set of targets that always iterates in catalog order.
type TargetSet map[Target]bool

func NewTargetSet(targets ...Target) TargetSet {
	s := make(TargetSet, len(targets))
	for _, t := range targets {
		s[t] = true
	}
	return s
}

func (s TargetSet) Has(t Target) bool { return s[t] }

// Sorted returns the members in catalog order.
func (s TargetSet) Sorted() []Target {
	var out []Target
	for _, t := range supportTargets {
		if s[t] {
			out = append(out, t)
		}
	}
	return out
}

func (s TargetSet) String() string {
	names := make([]string, 0, len(s))
	for _, t := range s.Sorted() {
		names = append(names, string(t))
	}
	return strings.Join(names, " ")
}

// Selection is the resolved target matrix for one invocation.
type Selection struct {
	// Targets are the requested binaries. They drive the ndk-build flags
	// and the post-processing step.
	Targets TargetSet
	// Managed are the cargo crates to build, dependencies included.
	Managed TargetSet
}

// Empty reports that nothing is left to build.
func (s Selection) Empty() bool { return len(s.Targets) == 0 }

// All is the union of requested targets and their managed dependencies.
func (s Selection) All() TargetSet {
	all := NewTargetSet()
	for t := range s.Targets {
		all[t] = true
	}
	for t := range s.Managed {
		all[t] = true
	}
	return all
}

// SelectTargets resolves requested target names against the catalog.
// An empty request selects the defaults; unknown names are dropped.
func SelectTargets(requested []string) Selection {
	sel := Selection{Targets: NewTargetSet(), Managed: NewTargetSet()}
	if len(requested) == 0 {
		sel.Targets = NewTargetSet(defaultTargets...)
	} else {
		for _, name := range requested {
			if t := Target(name); slices.Contains(supportTargets, t) {
				sel.Targets[t] = true
			}
		}
	}

	for t := range sel.Targets {
		if slices.Contains(rustTargets, t) {
			sel.Managed[t] = true
		}
		for _, dep := range managedDeps[t] {
			sel.Managed[dep] = true
		}
	}
	return sel
}
