package probe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"schema-sentinel/internal/catalog"
	"schema-sentinel/internal/dialect"
	"schema-sentinel/internal/drift"
	"schema-sentinel/internal/manifest"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// SetupError reports that a prerequisite row (a parent, or the valid base
// row a probe builds on) could not be created.
type SetupError struct {
	Table string
	Err   error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("could not create %s row: %v", e.Table, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// skipped carries the reason a probe found nothing to test.
type skipped string

func (s skipped) Error() string { return string(s) }

// Prober runs probes against one database. It is safe for concurrent use:
// every probe works on its own connection and its own freshly keyed rows.
type Prober struct {
	db       *sql.DB
	d        dialect.Dialect
	manifest *manifest.Manifest
	snapshot *catalog.Snapshot
	rank     map[string]int
}

func New(db *sql.DB, d dialect.Dialect, m *manifest.Manifest, snap *catalog.Snapshot) *Prober {
	rank := make(map[string]int)
	for i, t := range snap.DependencyOrder() {
		rank[strings.ToLower(t.QualifiedName())] = i
	}
	return &Prober{db: db, d: d, manifest: m, snapshot: snap, rank: rank}
}

// target is the probed table resolved against manifest and snapshot.
type target struct {
	spec   manifest.TableSpec
	probe  *manifest.ProbeSpec
	table  *catalog.Table
	marker string // catalog name of the marker column
}

// Run executes one probe. Drift is returned as findings, never as an error;
// rows the probe created are deleted before Run returns.
func (p *Prober) Run(ctx context.Context, pr Probe) (res Result) {
	start := time.Now()
	res = Result{Probe: pr}
	defer func() {
		res.Elapsed = time.Since(start)
		log.Debug().Str("probe", pr.String()).Str("status", string(res.Status)).
			Dur("elapsed", res.Elapsed).Msg("probe finished")
	}()

	tg, err := p.resolve(pr)
	if err != nil {
		return p.fail(ctx, res, err)
	}

	sc, err := Acquire(ctx, p.db, p.d)
	if err != nil {
		return p.fail(ctx, res, err)
	}
	defer func() { res.Cleanup = sc.Close(ctx) }()

	var findings []drift.Finding
	switch pr.Family {
	case RequiredField:
		findings, err = p.required(ctx, sc, tg, pr)
	case Uniqueness:
		findings, err = p.unique(ctx, sc, tg, pr)
	case ForeignKey:
		findings, err = p.foreignKey(ctx, sc, tg, pr)
	case DefaultValue:
		findings, err = p.defaults(ctx, sc, tg, pr)
	case Precision:
		findings, err = p.precision(ctx, sc, tg, pr)
	default:
		err = fmt.Errorf("unknown probe family %q", pr.Family)
	}
	if err != nil {
		return p.fail(ctx, res, err)
	}

	res.Findings = findings
	if len(findings) == 0 {
		res.Status = StatusPassed
	} else {
		res.Status = StatusFailed
		res.Detail = findings[0].Detail
	}
	return res
}

func (p *Prober) resolve(pr Probe) (target, error) {
	spec, ok := p.manifest.Lookup(pr.Table)
	if !ok || spec.Probe == nil {
		return target{}, skipped(fmt.Sprintf("no probe declared for %s", pr.Table))
	}
	table, ok := p.snapshot.Table(pr.Table)
	if !ok {
		return target{}, skipped(fmt.Sprintf("table %s does not exist", pr.Table))
	}
	marker, ok := table.Column(spec.Probe.Marker)
	if !ok {
		return target{}, skipped(fmt.Sprintf("marker column %s does not exist", spec.Probe.Marker))
	}
	if pr.Column != "" {
		if _, ok := table.Column(pr.Column); !ok {
			return target{}, skipped(fmt.Sprintf("column %s does not exist", pr.Column))
		}
	}
	return target{spec: spec, probe: spec.Probe, table: table, marker: marker.Name}, nil
}

func (p *Prober) fail(ctx context.Context, res Result, err error) Result {
	var sk skipped
	if errors.As(err, &sk) {
		res.Status = StatusSkipped
		res.Detail = sk.Error()
		return res
	}
	if classify(ctx, p.d, err).Aborted() {
		reason := err.Error()
		if ctx.Err() != nil {
			reason = ctx.Err().Error()
		}
		out := Incomplete(res.Probe, reason)
		out.Elapsed = res.Elapsed
		return out
	}
	res.Status = StatusSetupFailed
	res.Detail = err.Error()
	res.Findings = []drift.Finding{drift.New(drift.ProbeSetupFailure, res.Probe.Subject(),
		"%s probe setup failed: %v", res.Probe.Family, err)}
	return res
}

// ---------------------------------------------------------------------
// Row building
// ---------------------------------------------------------------------

// buildRow assembles a valid row for t: fixture values, the marker, fresh
// values for unique columns, parent keys, then generated values for any
// remaining column the database cannot fill on its own.
func buildRow(ps *manifest.ProbeSpec, t *catalog.Table, key string, parents map[string]any) row {
	r := make(row)
	set := func(name string, v any) {
		if c, ok := t.Column(name); ok {
			r[c.Name] = v
		} else {
			log.Debug().Str("table", t.QualifiedName()).Str("column", name).Msg("fixture column not in catalog, ignored")
		}
	}

	for name, v := range ps.Fixture {
		set(name, Fake(v))
	}
	set(ps.Marker, key)
	for i, name := range ps.Unique {
		if strings.EqualFold(name, ps.Marker) {
			continue
		}
		if c, ok := t.Column(name); ok {
			r[c.Name] = uniqueValue(c, key, i)
		}
	}
	for name, v := range parents {
		set(name, v)
	}
	for i, c := range t.Columns {
		if _, ok := r[c.Name]; ok || !c.NeedsValue() {
			continue
		}
		if c.IsUnique || c.IsPK {
			r[c.Name] = uniqueValue(c, key, len(ps.Unique)+i)
		} else {
			r[c.Name] = GenerateValue(c)
		}
	}
	return r
}

func uniqueValue(c *catalog.Column, key string, i int) any {
	switch {
	case isUUIDType(c.DataType):
		return uuid.NewString()
	case isIntType(c.DataType):
		return keyNumber(key, c.Name)
	default:
		return key + "-" + strconv.Itoa(i)
	}
}

func isIntType(t string) bool {
	t = strings.ToLower(t)
	return strings.Contains(t, "int") || t == "number" || t == "numeric" || t == "decimal"
}

func isUUIDType(t string) bool {
	t = strings.ToLower(t)
	return strings.Contains(t, "uuid") || strings.Contains(t, "uniqueidentifier")
}

// parentValues creates the prerequisite rows declared for spec, parents
// first, and returns the key to store in each parent column. The parent of
// column skip is not created.
func (p *Prober) parentValues(ctx context.Context, sc *Scope, spec manifest.TableSpec, skip string) (map[string]any, error) {
	schema := p.manifest.SchemaOf(spec)
	refs := append([]manifest.ParentRef(nil), spec.Probe.Parents...)
	sort.SliceStable(refs, func(i, j int) bool {
		a := strings.ToLower(p.manifest.Resolve(refs[i].Table, schema))
		b := strings.ToLower(p.manifest.Resolve(refs[j].Table, schema))
		return p.rank[a] < p.rank[b]
	})

	vals := make(map[string]any, len(refs))
	for _, ref := range refs {
		if strings.EqualFold(ref.Column, skip) {
			continue
		}
		v, err := p.createParent(ctx, sc, p.manifest.Resolve(ref.Table, schema), ref.KeyColumn())
		if err != nil {
			return nil, err
		}
		vals[ref.Column] = v
	}
	return vals, nil
}

func (p *Prober) createParent(ctx context.Context, sc *Scope, name, keyColumn string) (any, error) {
	spec, ok := p.manifest.Lookup(name)
	if !ok || spec.Probe == nil {
		return nil, &SetupError{Table: name, Err: errors.New("no probe fixture declared")}
	}
	table, ok := p.snapshot.Table(name)
	if !ok {
		return nil, &SetupError{Table: name, Err: errors.New("table does not exist")}
	}
	marker, ok := table.Column(spec.Probe.Marker)
	if !ok {
		return nil, &SetupError{Table: name, Err: fmt.Errorf("marker column %s does not exist", spec.Probe.Marker)}
	}
	keyCol, ok := table.Column(keyColumn)
	if !ok {
		return nil, &SetupError{Table: name, Err: fmt.Errorf("key column %s does not exist", keyColumn)}
	}

	parents, err := p.parentValues(ctx, sc, spec, "")
	if err != nil {
		return nil, err
	}
	key := NewKey()
	sc.Track(table, marker.Name, key)
	if out := sc.Insert(ctx, table, buildRow(spec.Probe, table, key, parents)); !out.Accepted() {
		return nil, &SetupError{Table: name, Err: out.Err}
	}
	v, err := sc.Lookup(ctx, table, marker.Name, key, keyCol.Name)
	if err != nil {
		return nil, &SetupError{Table: name, Err: err}
	}
	return v, nil
}

// insertBase creates the valid row the default and precision probes inspect.
func (p *Prober) insertBase(ctx context.Context, sc *Scope, tg target, key string, r row) error {
	sc.Track(tg.table, tg.marker, key)
	if out := sc.Insert(ctx, tg.table, r); !out.Accepted() {
		return &SetupError{Table: tg.table.QualifiedName(), Err: out.Err}
	}
	return nil
}

// ---------------------------------------------------------------------
// Probe families
// ---------------------------------------------------------------------

func (p *Prober) required(ctx context.Context, sc *Scope, tg target, pr Probe) ([]drift.Finding, error) {
	col, _ := tg.table.Column(pr.Column)
	parents, err := p.parentValues(ctx, sc, tg.spec, pr.Column)
	if err != nil {
		return nil, err
	}

	key := NewKey()
	r := buildRow(tg.probe, tg.table, key, parents)
	delete(r, col.Name)

	sc.Track(tg.table, tg.marker, key)
	out := sc.Insert(ctx, tg.table, r)
	switch {
	case out.Accepted():
		return []drift.Finding{drift.New(drift.ConstraintNotEnforced, pr.Subject(),
			"insert omitting required column %s was accepted", col.Name)}, nil
	case out.Aborted():
		return nil, out.Err
	case out.Mentions(col.Name):
		return nil, nil
	default:
		return []drift.Finding{drift.New(drift.UnexpectedRejection, pr.Subject(),
			"insert omitting %s was rejected without naming it (%s)", col.Name, out)}, nil
	}
}

func (p *Prober) unique(ctx context.Context, sc *Scope, tg target, pr Probe) ([]drift.Finding, error) {
	col, _ := tg.table.Column(pr.Column)
	parents, err := p.parentValues(ctx, sc, tg.spec, "")
	if err != nil {
		return nil, err
	}

	first := NewKey()
	r1 := buildRow(tg.probe, tg.table, first, parents)
	if err := p.insertBase(ctx, sc, tg, first, r1); err != nil {
		return nil, err
	}

	// When the tested column is the marker itself the duplicate carries the
	// first key, and deleting the first marker removes both rows.
	second := NewKey()
	r2 := buildRow(tg.probe, tg.table, second, parents)
	r2[col.Name] = r1[col.Name]

	sc.Track(tg.table, tg.marker, second)
	out := sc.Insert(ctx, tg.table, r2)
	switch {
	case out.Accepted():
		return []drift.Finding{drift.New(drift.ConstraintNotEnforced, pr.Subject(),
			"duplicate value %v for %s was accepted", r1[col.Name], col.Name)}, nil
	case out.Aborted():
		return nil, out.Err
	case out.Rejected(dialect.ClassUnique):
		return nil, nil
	default:
		return []drift.Finding{drift.New(drift.UnexpectedRejection, pr.Subject(),
			"duplicate %s was rejected for another reason (%s)", col.Name, out)}, nil
	}
}

func (p *Prober) foreignKey(ctx context.Context, sc *Scope, tg target, pr Probe) ([]drift.Finding, error) {
	col, _ := tg.table.Column(pr.Column)
	parents, err := p.parentValues(ctx, sc, tg.spec, pr.Column)
	if err != nil {
		return nil, err
	}

	key := NewKey()
	r := buildRow(tg.probe, tg.table, key, parents)
	missing, err := p.missingReference(ctx, sc, tg, col, pr.Target)
	if err != nil {
		return nil, err
	}
	r[col.Name] = missing

	sc.Track(tg.table, tg.marker, key)
	out := sc.Insert(ctx, tg.table, r)
	switch {
	case out.Accepted():
		return []drift.Finding{drift.New(drift.ConstraintNotEnforced, pr.Subject(),
			"row referencing non-existent %s %v was accepted", pr.Target, missing)}, nil
	case out.Aborted():
		return nil, out.Err
	case out.Rejected(dialect.ClassForeignKey):
		return nil, nil
	default:
		return []drift.Finding{drift.New(drift.UnexpectedRejection, pr.Subject(),
			"reference to non-existent %s was rejected for another reason (%s)", pr.Target, out)}, nil
	}
}

// referenced returns the table and key column col points at: the declared
// foreign key if the catalog has one, else the manifest's parent key on the
// expected target. Either may be nil.
func (p *Prober) referenced(tg target, col *catalog.Column, targetName string) (*catalog.Table, *catalog.Column) {
	if fk, ok := p.snapshot.ForeignKeyFor(tg.table.QualifiedName(), col.Name); ok {
		if t, ok := p.snapshot.Table(fk.Target()); ok {
			c, _ := t.Column(fk.RefColumn)
			return t, c
		}
	}
	if t, ok := p.snapshot.Table(targetName); ok {
		keyCol := "id"
		if ref, ok := tg.probe.Parent(col.Name); ok {
			keyCol = ref.KeyColumn()
		}
		c, _ := t.Column(keyCol)
		return t, c
	}
	return nil, nil
}

// missingReference returns a well-formed identifier that no row of the
// referenced table carries.
func (p *Prober) missingReference(ctx context.Context, sc *Scope, tg target, col *catalog.Column, targetName string) (any, error) {
	refTable, refCol := p.referenced(tg, col, targetName)
	typ, length := col.DataType, col.Length
	if refCol != nil {
		typ, length = refCol.DataType, refCol.Length
	}

	if !isIntType(typ) {
		if isUUIDType(typ) || length == 0 || length >= 36 {
			return uuid.NewString(), nil
		}
		return strings.ReplaceAll(uuid.NewString(), "-", "")[:length], nil
	}

	limit := 2_000_000_000
	switch t := strings.ToLower(typ); {
	case strings.Contains(t, "tinyint"):
		limit = 127
	case strings.Contains(t, "smallint"):
		limit = 32767
	}
	for attempt := 0; attempt < 5; attempt++ {
		n := int64(gofakeit.Number(limit/2, limit))
		if refTable == nil || refCol == nil {
			return n, nil
		}
		taken, err := sc.Exists(ctx, refTable, refCol.Name, n)
		if err != nil {
			return nil, &SetupError{Table: refTable.QualifiedName(), Err: err}
		}
		if !taken {
			return n, nil
		}
	}
	return nil, &SetupError{Table: refTable.QualifiedName(), Err: errors.New("no unused identifier found")}
}

func (p *Prober) defaults(ctx context.Context, sc *Scope, tg target, pr Probe) ([]drift.Finding, error) {
	var cols, want []string
	for _, name := range sortedKeys(tg.probe.Defaults) {
		c, ok := tg.table.Column(name)
		if !ok {
			log.Debug().Str("table", pr.Table).Str("column", name).Msg("defaulted column not in catalog, skipped")
			continue
		}
		cols = append(cols, c.Name)
		want = append(want, tg.probe.Defaults[name])
	}
	if len(cols) == 0 {
		return nil, skipped("none of the defaulted columns exist")
	}

	parents, err := p.parentValues(ctx, sc, tg.spec, "")
	if err != nil {
		return nil, err
	}
	key := NewKey()
	r := buildRow(tg.probe, tg.table, key, parents)
	for _, c := range cols {
		delete(r, c)
	}

	sc.Track(tg.table, tg.marker, key)
	out := sc.Insert(ctx, tg.table, r)
	if !out.Accepted() {
		// A NOT NULL column without its documented default rejects the row.
		if out.Rejected(dialect.ClassNotNull) {
			for i, c := range cols {
				if out.Mentions(c) {
					return []drift.Finding{drift.New(drift.DefaultMismatch, drift.Subject(pr.Table, c),
						"%s has no default, documented default is %q", c, want[i])}, nil
				}
			}
		}
		return nil, &SetupError{Table: pr.Table, Err: out.Err}
	}

	got, err := sc.ReadBack(ctx, tg.table, tg.marker, key, cols)
	if err != nil {
		return nil, err
	}
	var findings []drift.Finding
	for i, c := range cols {
		if msg := checkDefault(want[i], got[i]); msg != "" {
			findings = append(findings, drift.New(drift.DefaultMismatch, drift.Subject(pr.Table, c), "%s %s", c, msg))
		}
	}
	return findings, nil
}

// checkDefault returns why got does not hold the documented default, or "".
func checkDefault(want string, got sql.NullString) string {
	if !got.Valid {
		return fmt.Sprintf("is NULL, documented default is %q", want)
	}
	if want == manifest.DefaultSet || equalValue(want, got.String) {
		return ""
	}
	return fmt.Sprintf("holds %q, documented default is %q", got.String, want)
}

// equalValue compares a documented value with what the database returned:
// booleans and decimals semantically, anything else as trimmed text.
func equalValue(want, got string) bool {
	got = strings.TrimSpace(got)
	want = strings.TrimSpace(want)
	if wb, ok := parseBool(want); ok {
		if gb, ok := parseBool(got); ok {
			return wb == gb
		}
	}
	if wd, err := decimal.NewFromString(want); err == nil {
		if gd, err := decimal.NewFromString(got); err == nil {
			return wd.Equal(gd)
		}
	}
	return want == got
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "t", "1", "y", "yes":
		return true, true
	case "false", "f", "0", "n", "no":
		return false, true
	}
	return false, false
}

func (p *Prober) precision(ctx context.Context, sc *Scope, tg target, pr Probe) ([]drift.Finding, error) {
	var cols []string
	var want []decimal.Decimal
	for _, name := range sortedKeys(tg.probe.Decimals) {
		c, ok := tg.table.Column(name)
		if !ok {
			log.Debug().Str("table", pr.Table).Str("column", name).Msg("decimal column not in catalog, skipped")
			continue
		}
		v, err := decimal.NewFromString(tg.probe.Decimals[name])
		if err != nil {
			return nil, fmt.Errorf("decimal literal for %s: %w", name, err)
		}
		cols = append(cols, c.Name)
		want = append(want, v)
	}
	if len(cols) == 0 {
		return nil, skipped("none of the decimal columns exist")
	}

	parents, err := p.parentValues(ctx, sc, tg.spec, "")
	if err != nil {
		return nil, err
	}
	key := NewKey()
	r := buildRow(tg.probe, tg.table, key, parents)
	for i, c := range cols {
		r[c] = want[i]
	}
	if err := p.insertBase(ctx, sc, tg, key, r); err != nil {
		return nil, err
	}

	got, err := sc.ReadBack(ctx, tg.table, tg.marker, key, cols)
	if err != nil {
		return nil, err
	}
	var findings []drift.Finding
	for i, c := range cols {
		if !got[i].Valid {
			findings = append(findings, drift.New(drift.PrecisionDrift, drift.Subject(pr.Table, c),
				"stored %s, read back NULL", want[i]))
			continue
		}
		gd, err := decimal.NewFromString(strings.TrimSpace(got[i].String))
		if err != nil || !gd.Equal(want[i]) {
			findings = append(findings, drift.New(drift.PrecisionDrift, drift.Subject(pr.Table, c),
				"stored %s, read back %s", want[i], got[i].String))
		}
	}
	return findings, nil
}
