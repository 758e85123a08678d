// Package relational describes how search hits map back onto rows in the
// system of record.
package relational

import (
	"fmt"
	"regexp"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Scope describes the table a hit set materializes from.
type Scope struct {
	Table    string
	PKColumn string
	Columns  []string // selected columns, pk included by the caller if wanted
}

// Validate checks that every identifier is safe to quote.
func (s Scope) Validate() error {
	if !identRe.MatchString(s.Table) {
		return fmt.Errorf("invalid table name %q (must match %s)", s.Table, identRe.String())
	}
	if !identRe.MatchString(s.PKColumn) {
		return fmt.Errorf("invalid pk column %q (must match %s)", s.PKColumn, identRe.String())
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("scope for table %q selects no columns", s.Table)
	}
	for _, c := range s.Columns {
		if !identRe.MatchString(c) {
			return fmt.Errorf("invalid column name %q (must match %s)", c, identRe.String())
		}
	}
	return nil
}

// Record is one materialized row, annotated with its hit rank and score.
type Record struct {
	Fields map[string]any
	Score  *float64
	Rank   int
}
