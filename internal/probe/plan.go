package probe

import (
	"sort"
	"time"

	"schema-sentinel/internal/drift"
	"schema-sentinel/internal/manifest"
)

type Family string

const (
	RequiredField Family = "required-field"
	Uniqueness    Family = "uniqueness"
	ForeignKey    Family = "foreign-key"
	DefaultValue  Family = "default-value"
	Precision     Family = "precision"
)

type Status string

const (
	StatusPassed      Status = "passed"
	StatusFailed      Status = "failed"
	StatusSkipped     Status = "skipped-documented"
	StatusSetupFailed Status = "setup-failed"
	StatusIncomplete  Status = "incomplete"
)

// Probe is one planned mutation experiment against one table.
type Probe struct {
	Family Family `json:"family"`
	Table  string `json:"table"`            // qualified manifest name
	Column string `json:"column,omitempty"` // required, unique and foreign-key probes
	Target string `json:"target,omitempty"` // foreign-key probes: qualified referenced table
}

// Subject is the table (or table.column) findings are reported against.
func (p Probe) Subject() string {
	return drift.Subject(p.Table, p.Column)
}

func (p Probe) String() string {
	return string(p.Family) + " " + p.Subject()
}

// Result is what one probe observed.
type Result struct {
	Probe    Probe            `json:"probe"`
	Status   Status           `json:"status"`
	Detail   string           `json:"detail,omitempty"`
	Findings []drift.Finding  `json:"findings,omitempty"`
	Cleanup  []CleanupFailure `json:"cleanup_failures,omitempty"`
	Elapsed  time.Duration    `json:"elapsed"`
}

// Incomplete is the result for a probe that never ran (or was cut off).
func Incomplete(p Probe, reason string) Result {
	return Result{
		Probe:    p,
		Status:   StatusIncomplete,
		Detail:   reason,
		Findings: []drift.Finding{drift.New(drift.ProbeIncomplete, p.Subject(), "%s probe did not complete: %s", p.Family, reason)},
	}
}

// Plan expands the manifest's probe declarations into individual probes, in
// manifest order. Tables without a probe section are not probed.
func Plan(m *manifest.Manifest) []Probe {
	var out []Probe
	for _, spec := range m.Tables {
		if spec.Probe == nil {
			continue
		}
		table := m.QualifiedName(spec)
		for _, col := range spec.Probe.Required {
			out = append(out, Probe{Family: RequiredField, Table: table, Column: col})
		}
		for _, col := range spec.Probe.Unique {
			out = append(out, Probe{Family: Uniqueness, Table: table, Column: col})
		}
		for _, fk := range spec.ExpectedForeignKeys {
			out = append(out, Probe{
				Family: ForeignKey,
				Table:  table,
				Column: fk.Column,
				Target: m.Resolve(fk.TargetTable, m.SchemaOf(spec)),
			})
		}
		if len(spec.Probe.Defaults) > 0 {
			out = append(out, Probe{Family: DefaultValue, Table: table})
		}
		if len(spec.Probe.Decimals) > 0 {
			out = append(out, Probe{Family: Precision, Table: table})
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
