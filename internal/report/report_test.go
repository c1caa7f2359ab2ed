package report_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"schema-sentinel/internal/drift"
	"schema-sentinel/internal/probe"
	"schema-sentinel/internal/report"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func sample() report.Input {
	return report.Input{
		Database:   "ci",
		Structural: []drift.Finding{drift.New(drift.InsufficientIndexes, "public.orders", "0 indexes")},
		Probes: []probe.Result{
			{
				Probe:    probe.Probe{Family: probe.ForeignKey, Table: "public.production_milestones", Column: "production_order_id"},
				Status:   probe.StatusFailed,
				Findings: []drift.Finding{drift.New(drift.ConstraintNotEnforced, "public.production_milestones.production_order_id", "accepted")},
				Cleanup:  []probe.CleanupFailure{{Table: "public.production_milestones", Column: "name", Marker: "prb1", Error: "boom"}},
			},
			{Probe: probe.Probe{Family: probe.DefaultValue, Table: "public.invoices"}, Status: probe.StatusPassed},
		},
		Responsiveness: []drift.Finding{drift.New(drift.SlowResponse, "database", "1.2s")},
		Latency:        1200 * time.Millisecond,
		Started:        time.Now(),
	}
}

func TestAggregate(t *testing.T) {
	r := report.Aggregate(sample())

	assert.False(t, r.Passed)
	assert.Equal(t, report.Counts{Critical: 1, High: 0, Medium: 2}, r.Counts)
	require.Len(t, r.Findings, 3)
	assert.Equal(t, drift.ConstraintNotEnforced, r.Findings[0].Kind)
	assert.Equal(t, drift.SevMedium, r.Findings[2].Severity)
	assert.Len(t, r.CleanupFailures, 1)
	assert.Equal(t, "public.invoices", r.Probes[0].Probe.Table)
	assert.Len(t, r.FindingsFor("public.production_milestones"), 1)
	assert.Empty(t, r.FindingsFor("public.production"))
}

func TestAggregatePassesWithMediumOnly(t *testing.T) {
	r := report.Aggregate(report.Input{
		Responsiveness: []drift.Finding{drift.New(drift.SlowResponse, "database", "slow")},
	})
	assert.True(t, r.Passed)
	assert.Equal(t, 1, r.Counts.Total())

	empty := report.Aggregate(report.Input{})
	assert.True(t, empty.Passed)
	assert.NotNil(t, empty.Findings)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteTable(&buf, report.Aggregate(sample())))

	out := buf.String()
	assert.Contains(t, out, "ConstraintNotEnforced")
	assert.Contains(t, out, "public.production_milestones.production_order_id")
	assert.Contains(t, out, "1 passed, 1 failed")
	assert.Contains(t, out, "CLEANUP")
	assert.Contains(t, out, "FAIL")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, report.Aggregate(sample()), report.FormatJSON))

	var decoded struct {
		Passed   bool `json:"passed"`
		Findings []struct {
			Kind     string `json:"kind"`
			Severity string `json:"severity"`
		} `json:"findings"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.False(t, decoded.Passed)
	require.Len(t, decoded.Findings, 3)
	assert.Equal(t, "CRITICAL", decoded.Findings[0].Severity)
}

func TestParseFormat(t *testing.T) {
	f, err := report.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, report.FormatTable, f)

	_, err = report.ParseFormat("xml")
	assert.Error(t, err)
}
