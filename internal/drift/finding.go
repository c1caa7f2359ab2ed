package drift

import (
	"fmt"
	"sort"
)

type Severity string

const (
	SevCritical Severity = "CRITICAL"
	SevHigh     Severity = "HIGH"
	SevMedium   Severity = "MEDIUM"
)

// Rank orders severities, most severe first.
func (s Severity) Rank() int {
	switch s {
	case SevCritical:
		return 0
	case SevHigh:
		return 1
	case SevMedium:
		return 2
	default:
		return 3
	}
}

// Blocking reports whether a finding of this severity fails the run.
func (s Severity) Blocking() bool {
	return s == SevCritical || s == SevHigh
}

type Kind string

const (
	// Structural (comparator)
	MissingTable            Kind = "MissingTable"
	UnexpectedMissingColumn Kind = "UnexpectedMissingColumn"
	MissingForeignKey       Kind = "MissingForeignKey"
	InsufficientIndexes     Kind = "InsufficientIndexes"

	// Behavioural (prober)
	ConstraintNotEnforced Kind = "ConstraintNotEnforced"
	UnexpectedRejection   Kind = "UnexpectedRejection"
	DefaultMismatch       Kind = "DefaultMismatch"
	PrecisionDrift        Kind = "PrecisionDrift"
	ProbeSetupFailure     Kind = "ProbeSetupFailure"
	ProbeIncomplete       Kind = "ProbeIncomplete"

	// Responsiveness
	SlowResponse Kind = "SlowResponse"
)

// Severity is the fixed severity of each kind.
func (k Kind) Severity() Severity {
	switch k {
	case MissingTable, UnexpectedMissingColumn, ConstraintNotEnforced:
		return SevCritical
	case MissingForeignKey, DefaultMismatch, PrecisionDrift, ProbeSetupFailure:
		return SevHigh
	default:
		return SevMedium
	}
}

// Finding is one unit of drift.
type Finding struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Subject  string   `json:"subject"` // table, or table.column
	Detail   string   `json:"detail"`
}

// New builds a finding with the kind's severity.
func New(kind Kind, subject, format string, args ...any) Finding {
	return Finding{
		Kind:     kind,
		Severity: kind.Severity(),
		Subject:  subject,
		Detail:   fmt.Sprintf(format, args...),
	}
}

// Subject joins a table and optional column.
func Subject(table, column string) string {
	if column == "" {
		return table
	}
	return table + "." + column
}

// Sort orders findings by severity, then subject, then kind and detail, so
// reports diff cleanly across runs.
func Sort(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Detail < b.Detail
	})
}
