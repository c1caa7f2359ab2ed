package manifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validate checks the structural rules of a manifest and returns every
// violation joined into one error.
func (m *Manifest) Validate() error {
	var errs []error
	seen := make(map[string]bool)

	for i, t := range m.Tables {
		if strings.TrimSpace(t.Name) == "" {
			errs = append(errs, fmt.Errorf("tables[%d]: name is required", i))
			continue
		}
		key := strings.ToLower(m.QualifiedName(t))
		if seen[key] {
			errs = append(errs, fmt.Errorf("table %s: declared more than once", m.QualifiedName(t)))
		}
		seen[key] = true

		if t.ExpectedIndexMinimum < 0 {
			errs = append(errs, fmt.Errorf("table %s: min_indexes must be >= 0", m.QualifiedName(t)))
		}
		for _, fk := range t.ExpectedForeignKeys {
			if fk.Column == "" || fk.TargetTable == "" {
				errs = append(errs, fmt.Errorf("table %s: foreign key needs column and target", m.QualifiedName(t)))
			}
		}
		if t.Probe != nil {
			errs = append(errs, m.validateProbe(t)...)
		}
	}

	if err := m.checkParentCycles(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (m *Manifest) validateProbe(t TableSpec) []error {
	var errs []error
	name := m.QualifiedName(t)
	p := t.Probe

	if p.Marker == "" {
		return append(errs, fmt.Errorf("table %s: probe.marker is required", name))
	}
	for _, col := range p.Required {
		if strings.EqualFold(col, p.Marker) {
			errs = append(errs, fmt.Errorf("table %s: marker column %s cannot be a required-field probe (rows could not be cleaned up)", name, col))
		}
	}
	for col := range p.Defaults {
		if strings.EqualFold(col, p.Marker) {
			errs = append(errs, fmt.Errorf("table %s: marker column %s cannot have a default-value probe (rows could not be cleaned up)", name, col))
		}
	}
	for col, lit := range p.Decimals {
		if strings.EqualFold(col, p.Marker) {
			errs = append(errs, fmt.Errorf("table %s: marker column %s cannot have a precision probe (rows could not be cleaned up)", name, col))
		}
		if _, err := decimal.NewFromString(lit); err != nil {
			errs = append(errs, fmt.Errorf("table %s: decimals.%s: %q is not a decimal", name, col, lit))
		}
	}
	for _, ref := range p.Parents {
		if ref.Column == "" || ref.Table == "" {
			errs = append(errs, fmt.Errorf("table %s: parent needs column and table", name))
			continue
		}
		parent, ok := m.Lookup(m.Resolve(ref.Table, m.SchemaOf(t)))
		if !ok {
			errs = append(errs, fmt.Errorf("table %s: parent table %s is not declared", name, ref.Table))
			continue
		}
		if parent.Probe == nil || parent.Probe.Marker == "" {
			errs = append(errs, fmt.Errorf("table %s: parent table %s has no probe marker", name, ref.Table))
		}
	}
	return errs
}

// checkParentCycles rejects prerequisite chains that loop back on themselves.
func (m *Manifest) checkParentCycles() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)

	var visit func(t TableSpec, path []string) error
	visit = func(t TableSpec, path []string) error {
		key := strings.ToLower(m.QualifiedName(t))
		switch state[key] {
		case visiting:
			return fmt.Errorf("probe parents form a cycle: %s", strings.Join(append(path, m.QualifiedName(t)), " -> "))
		case done:
			return nil
		}
		state[key] = visiting
		if t.Probe != nil {
			for _, ref := range t.Probe.Parents {
				parent, ok := m.Lookup(m.Resolve(ref.Table, m.SchemaOf(t)))
				if !ok {
					continue
				}
				if err := visit(parent, append(path, m.QualifiedName(t))); err != nil {
					return err
				}
			}
		}
		state[key] = done
		return nil
	}

	for _, t := range m.Tables {
		if err := visit(t, nil); err != nil {
			return err
		}
	}
	return nil
}
