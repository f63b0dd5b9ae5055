// Package conflictgraph implements the generic conflict-relation algorithm
// the merger is built on: pairwise relation maps, connected components, and
// the partitioning of conflicting items into self-consistent rejection
// options.
//
// All closures are iterative worklist loops. Conflict graphs are shaped by
// adversarial input, so nothing here recurses.
package conflictgraph

// RelationMap maps each item to the set of items it relates to. Items with
// no relations never appear as keys.
type RelationMap[T comparable] map[T]map[T]struct{}

// BuildRelationMap evaluates the relation once per unordered pair of items
// and returns the symmetric relation map. The relation must be pure and
// symmetric; it is never evaluated for (b, a) once (a, b) was evaluated.
func BuildRelationMap[T comparable](items []T, relation func(a, b T) bool) RelationMap[T] {
	relationMap := make(RelationMap[T])
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if relation(items[i], items[j]) {
				relationMap.add(items[i], items[j])
				relationMap.add(items[j], items[i])
			}
		}
	}
	return relationMap
}

func (rm RelationMap[T]) add(from, to T) {
	related, ok := rm[from]
	if !ok {
		related = make(map[T]struct{})
		rm[from] = related
	}
	related[to] = struct{}{}
}

// RelatedTo returns the set of items the given item relates to.
func (rm RelationMap[T]) RelatedTo(item T) map[T]struct{} {
	return rm[item]
}

// ConnectedComponents partitions items into the components induced by the
// relation map: the closure of each item under the relation. Every item
// lands in exactly one component, items with no relations form singleton
// components, and no component is empty. Components and their members keep
// the input item order, so the output is deterministic given a deterministic
// input ordering.
func ConnectedComponents[T comparable](relationMap RelationMap[T], items []T) [][]T {
	visited := make(map[T]struct{}, len(items))
	components := make([][]T, 0)

	for _, item := range items {
		if _, ok := visited[item]; ok {
			continue
		}

		// Worklist closure under the relation.
		member := map[T]struct{}{item: {}}
		visited[item] = struct{}{}
		worklist := []T{item}
		for len(worklist) > 0 {
			current := worklist[0]
			worklist = worklist[1:]
			for related := range relationMap[current] {
				if _, ok := member[related]; ok {
					continue
				}
				member[related] = struct{}{}
				visited[related] = struct{}{}
				worklist = append(worklist, related)
			}
		}

		component := make([]T, 0, len(member))
		for _, candidate := range items {
			if _, ok := member[candidate]; ok {
				component = append(component, candidate)
			}
		}
		components = append(components, component)
	}

	return components
}

// RejectionOptions returns one candidate rejection set per item that has at
// least one conflict. Each candidate is self-consistent: rejecting exactly
// that set leaves the remaining items pairwise non-conflicting. Candidates
// that turn out identical collapse into one. Items without conflicts never
// seed a candidate.
func RejectionOptions[T comparable](conflictMap RelationMap[T], items []T) [][]T {
	options := make([][]T, 0)

	for _, seed := range items {
		if len(conflictMap[seed]) == 0 {
			continue
		}

		option := rejectionOptionFor(conflictMap, items, seed)
		if !containsOption(options, option) {
			options = append(options, option)
		}
	}

	return options
}

// rejectionOptionFor grows a must-keep set and a must-reject set by
// alternating BFS levels out of the seed: the seed is kept, its direct
// conflicts rejected, their conflicts kept, and so on to closure. Items
// reachable on both parities are rejected, so the kept remainder is always
// conflict-free.
func rejectionOptionFor[T comparable](conflictMap RelationMap[T], items []T, seed T) []T {
	keep := map[T]struct{}{seed: {}}
	reject := make(map[T]struct{})

	level := []T{seed}
	rejectLevel := true
	for len(level) > 0 {
		next := make([]T, 0)
		nextSet := make(map[T]struct{})
		for _, current := range level {
			for _, candidate := range items {
				if _, related := conflictMap[current][candidate]; !related {
					continue
				}
				if _, ok := reject[candidate]; ok {
					continue
				}
				if _, ok := nextSet[candidate]; ok {
					continue
				}
				if _, ok := keep[candidate]; ok {
					if !rejectLevel {
						continue
					}
					// The candidate was kept on an earlier parity but is now
					// forced out: a conflict with a kept item always wins.
					delete(keep, candidate)
				}
				nextSet[candidate] = struct{}{}
				next = append(next, candidate)
			}
		}

		for _, item := range next {
			if rejectLevel {
				reject[item] = struct{}{}
			} else {
				keep[item] = struct{}{}
			}
		}
		level = next
		rejectLevel = !rejectLevel
	}

	// Odd cycles can leave two kept items in conflict. Push the later one
	// (in input order) into the rejection set until the remainder is clean.
	for changed := true; changed; {
		changed = false
		for i := 0; i < len(items); i++ {
			if _, ok := keep[items[i]]; !ok {
				continue
			}
			for j := i + 1; j < len(items); j++ {
				if _, ok := keep[items[j]]; !ok {
					continue
				}
				if _, related := conflictMap[items[i]][items[j]]; related {
					delete(keep, items[j])
					reject[items[j]] = struct{}{}
					changed = true
				}
			}
		}
	}

	option := make([]T, 0, len(reject))
	for _, item := range items {
		if _, ok := reject[item]; ok {
			option = append(option, item)
		}
	}
	return option
}

func containsOption[T comparable](options [][]T, option []T) bool {
	for _, existing := range options {
		if optionsEqual(existing, option) {
			return true
		}
	}
	return false
}

func optionsEqual[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	members := make(map[T]struct{}, len(a))
	for _, item := range a {
		members[item] = struct{}{}
	}
	for _, item := range b {
		if _, ok := members[item]; !ok {
			return false
		}
	}
	return true
}
