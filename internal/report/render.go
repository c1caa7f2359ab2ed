package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"schema-sentinel/internal/drift"
	"schema-sentinel/internal/probe"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want table or json)", s)
	}
}

// Write renders r to w in the given format.
func Write(w io.Writer, r *Report, f Format) error {
	if f == FormatJSON {
		return WriteJSON(w, r)
	}
	return WriteTable(w, r)
}

// WriteJSON emits the report as indented JSON for CI consumers.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteTable prints the findings table, the probe summary and a coloured
// verdict line.
func WriteTable(w io.Writer, r *Report) error {
	critical := color.New(color.FgHiRed, color.Bold).SprintFunc()
	high := color.New(color.FgRed).SprintFunc()
	medium := color.New(color.FgYellow).SprintFunc()

	if r.Database != "" {
		fmt.Fprintf(w, "Database: %s\n", r.Database)
	}

	if len(r.Findings) == 0 {
		fmt.Fprintln(w, "No drift found.")
	} else {
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Severity", "Kind", "Subject", "Detail"})
		for _, f := range r.Findings {
			sev := string(f.Severity)
			switch f.Severity {
			case drift.SevCritical:
				sev = critical(sev)
			case drift.SevHigh:
				sev = high(sev)
			case drift.SevMedium:
				sev = medium(sev)
			}
			if err := table.Append([]string{sev, string(f.Kind), f.Subject, f.Detail}); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	if len(r.Probes) > 0 {
		st := r.StatusCounts()
		fmt.Fprintf(w, "Probes: %d passed, %d failed, %d skipped, %d setup-failed, %d incomplete\n",
			st[probe.StatusPassed], st[probe.StatusFailed], st[probe.StatusSkipped],
			st[probe.StatusSetupFailed], st[probe.StatusIncomplete])
	}
	for _, cf := range r.CleanupFailures {
		fmt.Fprintf(w, "%s probe row left in %s (%s = %s): %s\n", medium("CLEANUP"), cf.Table, cf.Column, cf.Marker, cf.Error)
	}
	fmt.Fprintf(w, "Round trip: %s\n", r.Latency.Round(time.Microsecond))

	verdict := color.New(color.FgGreen, color.Bold).Sprint("PASS")
	if !r.Passed {
		verdict = color.New(color.FgHiRed, color.Bold).Sprint("FAIL")
	}
	fmt.Fprintf(w, "%s  critical=%d high=%d medium=%d  (%s)\n",
		verdict, r.Counts.Critical, r.Counts.High, r.Counts.Medium, r.Duration.Round(time.Millisecond))
	return nil
}
