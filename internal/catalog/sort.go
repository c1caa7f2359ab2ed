package catalog

import "strings"

// ---------------------------------------------------------------------
// Sorting Algorithm (Topological / Greedy)
// ---------------------------------------------------------------------

// SortTablesByFKCount sorts tables by dependency order (referenced tables first).
// Dependencies are qualified names; ones outside the given set count as satisfied.
// It handles circular dependencies by using a scoring system.
func SortTablesByFKCount(tables []*Table) []*Table {
	var sorted []*Table
	processed := make(map[string]bool)
	known := make(map[string]*Table, len(tables))
	for _, t := range tables {
		known[key(t.QualifiedName())] = t
	}

	pending := func(t *Table) []string {
		var deps []string
		for _, dep := range t.Dependencies {
			k := key(dep)
			if _, ok := known[k]; ok && !processed[k] {
				deps = append(deps, k)
			}
		}
		return deps
	}

	// Keep looping until all tables are processed
	for len(sorted) < len(tables) {
		added := false

		// Pass 1: Add tables whose dependencies are fully satisfied
		for _, t := range tables {
			k := key(t.QualifiedName())
			if processed[k] {
				continue
			}
			if len(pending(t)) == 0 {
				sorted = append(sorted, t)
				processed[k] = true
				added = true
			}
		}

		// Pass 2: If no table added, we have a cycle. Break it using heuristic score.
		if !added {
			var bestTable *Table
			bestScore := -999999

			for _, t := range tables {
				k := key(t.QualifiedName())
				if processed[k] {
					continue
				}

				// Penalty: unprocessed dependencies. Bonus: direct participation in a cycle.
				deps := pending(t)
				score := -(len(deps) * 100)

				isCircular := false
				for _, depKey := range deps {
					for _, candDep := range known[depKey].Dependencies {
						if key(candDep) == k {
							isCircular = true
							break
						}
					}
					if isCircular {
						break
					}
				}
				if isCircular {
					score += 500 // Priority boost
				}

				// Tie-breaker: Name (Deterministic)
				if score > bestScore {
					bestScore = score
					bestTable = t
				} else if score == bestScore {
					if bestTable == nil || strings.Compare(t.QualifiedName(), bestTable.QualifiedName()) < 0 {
						bestTable = t
					}
				}
			}

			if bestTable == nil {
				break
			}
			sorted = append(sorted, bestTable)
			processed[key(bestTable.QualifiedName())] = true
		}
	}

	return sorted
}
