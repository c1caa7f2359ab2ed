package report

import (
	"sort"
	"time"

	"schema-sentinel/internal/drift"
	"schema-sentinel/internal/probe"
)

type Counts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
}

// Total is the number of findings counted.
func (c Counts) Total() int {
	return c.Critical + c.High + c.Medium
}

// Report is the single output of a verification run.
type Report struct {
	Database        string                 `json:"database,omitempty"`
	Passed          bool                   `json:"passed"`
	Counts          Counts                 `json:"counts"`
	Findings        []drift.Finding        `json:"findings"`
	Probes          []probe.Result         `json:"probes,omitempty"`
	CleanupFailures []probe.CleanupFailure `json:"cleanup_failures,omitempty"`
	Latency         time.Duration          `json:"latency_ns"`
	Started         time.Time              `json:"started"`
	Duration        time.Duration          `json:"duration_ns"`
}

// Input collects what the comparator, prober and responsiveness check produced.
type Input struct {
	Database       string
	Structural     []drift.Finding
	Probes         []probe.Result
	Responsiveness []drift.Finding
	Latency        time.Duration
	Started        time.Time
}

// Aggregate merges every finding into one deterministically ordered report.
// The run fails iff any CRITICAL or HIGH finding exists.
func Aggregate(in Input) *Report {
	r := &Report{
		Database: in.Database,
		Latency:  in.Latency,
		Started:  in.Started,
		Findings: []drift.Finding{},
	}

	r.Findings = append(r.Findings, in.Structural...)
	for _, res := range in.Probes {
		r.Findings = append(r.Findings, res.Findings...)
		r.CleanupFailures = append(r.CleanupFailures, res.Cleanup...)
	}
	r.Findings = append(r.Findings, in.Responsiveness...)
	drift.Sort(r.Findings)

	for _, f := range r.Findings {
		switch f.Severity {
		case drift.SevCritical:
			r.Counts.Critical++
		case drift.SevHigh:
			r.Counts.High++
		case drift.SevMedium:
			r.Counts.Medium++
		}
	}
	r.Passed = r.Counts.Critical == 0 && r.Counts.High == 0

	r.Probes = append([]probe.Result(nil), in.Probes...)
	sort.SliceStable(r.Probes, func(i, j int) bool {
		a, b := r.Probes[i].Probe, r.Probes[j].Probe
		if a.Table != b.Table {
			return a.Table < b.Table
		}
		if a.Family != b.Family {
			return a.Family < b.Family
		}
		return a.Column < b.Column
	})

	if !in.Started.IsZero() {
		r.Duration = time.Since(in.Started)
	}
	return r
}

// StatusCounts tallies probe results by status.
func (r *Report) StatusCounts() map[probe.Status]int {
	out := make(map[probe.Status]int)
	for _, p := range r.Probes {
		out[p.Status]++
	}
	return out
}

// FindingsFor returns the findings whose subject is table or one of its columns.
func (r *Report) FindingsFor(table string) []drift.Finding {
	var out []drift.Finding
	for _, f := range r.Findings {
		if f.Subject == table || (len(f.Subject) > len(table) && f.Subject[:len(table)+1] == table+".") {
			out = append(out, f)
		}
	}
	return out
}
