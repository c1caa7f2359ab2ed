package drift

import (
	"sort"
	"strings"

	"schema-sentinel/internal/catalog"
	"schema-sentinel/internal/manifest"
)

// Compare diffs the declared manifest against a catalog snapshot. It does no
// I/O and never modifies either argument.
//
// Tables present in the snapshot but absent from the manifest are not
// reported: the manifest is a floor, not an exact listing.
func Compare(m *manifest.Manifest, snap *catalog.Snapshot) []Finding {
	var findings []Finding

	for _, spec := range m.Tables {
		name := m.QualifiedName(spec)
		table, ok := snap.Table(name)
		if !ok {
			findings = append(findings, New(MissingTable, name, "table %s does not exist in the live database", name))
			continue
		}

		// required - observed
		for _, col := range missingColumns(spec.RequiredColumns, table) {
			findings = append(findings, New(UnexpectedMissingColumn, Subject(name, col),
				"required column %s is missing from %s", col, name))
		}

		for _, fk := range spec.ExpectedForeignKeys {
			target := m.Resolve(fk.TargetTable, m.SchemaOf(spec))
			if !snap.HasForeignKey(name, fk.Column, target) {
				findings = append(findings, New(MissingForeignKey, Subject(name, fk.Column),
					"no foreign key from %s.%s to %s", name, fk.Column, target))
			}
		}

		if got := len(snap.Indexes(name)); got < spec.ExpectedIndexMinimum {
			findings = append(findings, New(InsufficientIndexes, name,
				"%s has %d index(es), expected at least %d", name, got, spec.ExpectedIndexMinimum))
		}
	}

	Sort(findings)
	return findings
}

func missingColumns(required []string, table *catalog.Table) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, col := range required {
		k := strings.ToLower(col)
		if seen[k] {
			continue
		}
		seen[k] = true
		if _, ok := table.Column(col); !ok {
			missing = append(missing, col)
		}
	}
	sort.Strings(missing)
	return missing
}
