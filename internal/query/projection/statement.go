// Package projection implements the read-model engine: named handlers
// that replay filtered event streams into relational tables behind
// per-tenant checkpoints.
package projection

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/zitadel/zitadel-eventstore-core/internal/eventstore"
)

// StatementKind tags the SQL shape a reducer wants executed.
type StatementKind int

const (
	StatementCreate StatementKind = iota
	StatementUpdate
	StatementUpsert
	StatementDelete
	StatementNoop
)

// Column is one (name, value) pair a Statement writes. OnlySetValueOnInsert
// marks a column that an upsert's ON CONFLICT clause must leave untouched
// (e.g. creation_date).
type Column struct {
	Name            string
	Value           any
	onlySetOnInsert bool
}

func NewCol(name string, value any) Column {
	return Column{Name: name, Value: value}
}

// OnlySetValueOnInsert wraps value so an upsert statement's ON CONFLICT
// DO UPDATE clause leaves the column out, matching execution.go's
// handler.OnlySetValueOnInsert(ExecutionTable, e.CreationDate()).
func OnlySetValueOnInsert(name string, value any) Column {
	return Column{Name: name, Value: value, onlySetOnInsert: true}
}

// Condition is one equality predicate a Statement's WHERE clause ANDs
// together.
type Condition struct {
	Name  string
	Value any
	less  bool
}

func NewCond(name string, value any) Condition {
	return Condition{Name: name, Value: value}
}

// NewLessThanCond builds a "column < value OR column IS NULL" guard, used
// by reducers that must only overwrite an earlier timestamp (mirroring
// session.go's reducePasswordChanged, which clears password_checked_at only
// when it predates the password change).
func NewLessThanCond(name string, value any) Condition {
	return Condition{Name: name, Value: value, less: true}
}

// Statement is what a Handler's Reduce produces: a fully-formed,
// idempotent SQL mutation against one of the projection's tables.
// Replaying an already-applied event must be a no-op.
type Statement struct {
	Kind       StatementKind
	Table      string
	Columns    []Column
	Conditions []Condition
	Event      eventstore.Event
}

func NewCreateStatement(e eventstore.Event, table string, cols []Column) *Statement {
	return &Statement{Kind: StatementCreate, Table: table, Columns: cols, Event: e}
}

func NewUpdateStatement(e eventstore.Event, table string, cols []Column, conds []Condition) *Statement {
	return &Statement{Kind: StatementUpdate, Table: table, Columns: cols, Conditions: conds, Event: e}
}

func NewUpsertStatement(e eventstore.Event, table string, conflictCols, cols []Column) *Statement {
	return &Statement{Kind: StatementUpsert, Table: table, Columns: cols, Conditions: conditionsFromColumns(conflictCols), Event: e}
}

func NewDeleteStatement(e eventstore.Event, table string, conds []Condition) *Statement {
	return &Statement{Kind: StatementDelete, Table: table, Conditions: conds, Event: e}
}

// NewNoopStatement lets a Reduce function acknowledge an event it
// intentionally ignores (e.g. a narrowing event type registered for
// ordering purposes only) without writing anything.
func NewNoopStatement(e eventstore.Event) *Statement {
	return &Statement{Kind: StatementNoop, Event: e}
}

func conditionsFromColumns(cols []Column) []Condition {
	conds := make([]Condition, len(cols))
	for i, c := range cols {
		conds[i] = Condition{Name: c.Name, Value: c.Value}
	}
	return conds
}

// Execute runs the statement against tx. Upsert and Delete are written so a
// repeat execution of the same statement is a no-op, satisfying the
// idempotence requirement every projection's Reduce must meet.
func (s *Statement) Execute(ctx context.Context, tx *sql.Tx) error {
	switch s.Kind {
	case StatementNoop:
		return nil
	case StatementCreate:
		return s.execInsert(ctx, tx, nil)
	case StatementUpsert:
		return s.execInsert(ctx, tx, s.Conditions)
	case StatementUpdate:
		return s.execUpdate(ctx, tx)
	case StatementDelete:
		return s.execDelete(ctx, tx)
	default:
		return fmt.Errorf("projection: unknown statement kind %d", s.Kind)
	}
}

func (s *Statement) execInsert(ctx context.Context, tx *sql.Tx, conflictCols []Condition) error {
	insert := sq.Insert(s.Table).PlaceholderFormat(sq.Dollar)
	cols := make([]string, len(s.Columns))
	vals := make([]any, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = c.Name
		vals[i] = c.Value
	}
	insert = insert.Columns(cols...).Values(vals...)

	stmt, args, err := insert.ToSql()
	if err != nil {
		return err
	}
	if conflictCols != nil {
		conflictNames := make([]string, len(conflictCols))
		for i, c := range conflictCols {
			conflictNames[i] = c.Name
		}
		var sets []string
		for _, c := range s.Columns {
			if c.onlySetOnInsert || containsName(conflictNames, c.Name) {
				continue
			}
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c.Name, c.Name))
		}
		stmt += fmt.Sprintf(" ON CONFLICT (%s)", strings.Join(conflictNames, ", "))
		if len(sets) == 0 {
			stmt += " DO NOTHING"
		} else {
			stmt += " DO UPDATE SET " + strings.Join(sets, ", ")
		}
	} else {
		stmt += " ON CONFLICT DO NOTHING"
	}
	_, err = tx.ExecContext(ctx, stmt, args...)
	return err
}

func (s *Statement) execUpdate(ctx context.Context, tx *sql.Tx) error {
	update := sq.Update(s.Table).PlaceholderFormat(sq.Dollar)
	for _, c := range s.Columns {
		update = update.Set(c.Name, c.Value)
	}
	for _, pred := range conditionPredicates(s.Conditions) {
		update = update.Where(pred)
	}
	stmt, args, err := update.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, stmt, args...)
	return err
}

func (s *Statement) execDelete(ctx context.Context, tx *sql.Tx) error {
	del := sq.Delete(s.Table).PlaceholderFormat(sq.Dollar)
	for _, pred := range conditionPredicates(s.Conditions) {
		del = del.Where(pred)
	}
	stmt, args, err := del.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, stmt, args...)
	return err
}

func conditionPredicates(conds []Condition) []sq.Sqlizer {
	preds := make([]sq.Sqlizer, 0, len(conds))
	for _, c := range conds {
		if c.less {
			preds = append(preds, sq.Or{sq.Lt{c.Name: c.Value}, sq.Eq{c.Name: nil}})
			continue
		}
		preds = append(preds, sq.Eq{c.Name: c.Value})
	}
	return preds
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
