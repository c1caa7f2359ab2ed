package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"schema-sentinel/internal/catalog"
	"schema-sentinel/internal/dialect"
	"schema-sentinel/internal/drift"
	"schema-sentinel/internal/manifest"
	"schema-sentinel/internal/probe"
	"schema-sentinel/internal/report"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Options tune one verification run. Zero values take the defaults below.
type Options struct {
	// Database labels the report.
	Database string
	// Schemas to introspect. The first is the primary schema that unqualified
	// manifest tables live in; schemas the manifest names are added.
	Schemas      []string
	SLA          time.Duration // responsiveness threshold, default 1s
	Workers      int           // concurrent probes, default 4
	RunTimeout   time.Duration // whole run, default 2m
	ProbeTimeout time.Duration // one probe including setup, default 15s
	SkipProbes   bool

	// OnPlan receives the number of probes about to run.
	OnPlan func(total int)
	// OnProgress receives each probe result as it completes. Calls are serialized.
	OnProgress func(probe.Result)
}

func (o Options) withDefaults() Options {
	if o.SLA <= 0 {
		o.SLA = time.Second
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.RunTimeout <= 0 {
		o.RunTimeout = 2 * time.Minute
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = 15 * time.Second
	}
	return o
}

// Schemas returns the primary schema and every schema to introspect.
func Schemas(d dialect.Dialect, m *manifest.Manifest, configured []string) (string, []string) {
	primary := d.GetSchemaName("")
	if len(configured) > 0 {
		primary = d.GetSchemaName(configured[0])
	}
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = d.GetSchemaName(s)
		if s != "" && !seen[strings.ToLower(s)] {
			seen[strings.ToLower(s)] = true
			out = append(out, s)
		}
	}
	add(primary)
	for _, s := range configured {
		add(s)
	}
	for _, s := range m.WithPrimarySchema(primary).Schemas() {
		add(s)
	}
	return primary, out
}

// Verify runs one verification: the manifest is validated against the primary
// schema, then introspection (failures are fatal and returned as
// *catalog.ConnectionError or *catalog.IntrospectionError), then
// the structural comparison, the constraint probes and the responsiveness
// check in parallel. Drift is reported in the returned report, never as an
// error.
func Verify(ctx context.Context, db *sql.DB, d dialect.Dialect, m *manifest.Manifest, opts Options) (*report.Report, error) {
	started := time.Now()
	opts = opts.withDefaults()

	ctx, cancel := context.WithTimeout(ctx, opts.RunTimeout)
	defer cancel()

	primary, schemas := Schemas(d, m, opts.Schemas)
	m = m.WithPrimarySchema(primary)
	// Bare names only collide with schema-qualified ones once the primary schema is known.
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest for primary schema %s: %w", primary, err)
	}

	log.Info().Str("dialect", d.Name()).Strs("schemas", schemas).Msg("introspecting catalog")
	snap, err := catalog.Introspect(ctx, db, d, schemas)
	if err != nil {
		return nil, err
	}
	log.Info().Int("tables", len(snap.Tables())).Msg("catalog snapshot taken")

	var (
		structural []drift.Finding
		results    []probe.Result
		slow       []drift.Finding
		latency    time.Duration
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		structural = drift.Compare(m, snap)
		return nil
	})
	g.Go(func() error {
		var err error
		latency, slow, err = Responsiveness(gctx, db, d, opts.SLA)
		return err
	})
	if !opts.SkipProbes {
		g.Go(func() error {
			probes := probe.Plan(m)
			if opts.OnPlan != nil {
				opts.OnPlan(len(probes))
			}
			results = RunProbes(gctx, probe.New(db, d, m, snap), probes, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := report.Aggregate(report.Input{
		Database:       opts.Database,
		Structural:     structural,
		Probes:         results,
		Responsiveness: slow,
		Latency:        latency,
		Started:        started,
	})
	log.Info().Bool("passed", r.Passed).Int("critical", r.Counts.Critical).Int("high", r.Counts.High).
		Int("medium", r.Counts.Medium).Dur("elapsed", r.Duration).Msg("verification finished")
	return r, nil
}

// RunProbes executes probes on at most opts.Workers goroutines, each bounded
// by opts.ProbeTimeout. Once ctx is done, probes that have not started are
// reported incomplete rather than dropped; results keep the input order.
func RunProbes(ctx context.Context, p *probe.Prober, probes []probe.Probe, opts Options) []probe.Result {
	opts = opts.withDefaults()
	results := make([]probe.Result, len(probes))

	var mu sync.Mutex
	done := func(i int, res probe.Result) {
		mu.Lock()
		defer mu.Unlock()
		results[i] = res
		if opts.OnProgress != nil {
			opts.OnProgress(res)
		}
	}

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, pr := range probes {
		if ctx.Err() != nil {
			done(i, probe.Incomplete(pr, "run deadline reached before the probe started"))
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				done(i, probe.Incomplete(pr, "run deadline reached before the probe started"))
				return nil
			}
			pctx, cancel := context.WithTimeout(ctx, opts.ProbeTimeout)
			defer cancel()
			done(i, p.Run(pctx, pr))
			return nil
		})
	}
	_ = g.Wait()
	return results
}
