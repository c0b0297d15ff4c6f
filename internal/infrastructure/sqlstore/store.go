// Package sqlstore reads rule configuration from the relational tables the
// back office writes (rules_ruletrigger, rules_rule, rules_rule_labels,
// rules_rulecondition, rules_ruleaction, labels_label).
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Victor-armando18/service-rules/internal/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// Store is a read-only rule repository over database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// OpenSQLite opens (or creates) the SQLite database at path.
func OpenSQLite(path string) (*Store, error) {
	if path == "" {
		path = "rules.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return New(db, DialectSQLite), nil
}

// OpenPostgres opens a pgx-backed connection pool for dsn.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(db, DialectPostgres), nil
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) TriggerExists(ctx context.Context, code string) (bool, error) {
	_, err := s.trigger(ctx, code)
	if errors.Is(err, domain.ErrUnknownTrigger) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) CandidateRules(ctx context.Context, code string) ([]domain.Rule, error) {
	trigger, err := s.trigger(ctx, code)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, name, COALESCE(description, ''), status
		FROM rules_rule WHERE trigger_id = ? AND status = ? ORDER BY id`), trigger.ID, string(domain.RuleEnabled))
	if err != nil {
		return nil, fmt.Errorf("select rules: %w", err)
	}
	var rules []domain.Rule
	index := map[int64]int{}
	for rows.Next() {
		r := domain.Rule{Trigger: trigger}
		var status string
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &status); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		r.Status = domain.RuleStatus(status)
		index[r.ID] = len(rules)
		rules = append(rules, r)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("select rules: %w", err)
	}
	if len(rules) == 0 {
		return []domain.Rule{}, nil
	}

	if err := s.loadGateLabels(ctx, trigger.ID, rules, index); err != nil {
		return nil, err
	}
	if err := s.loadConditions(ctx, trigger.ID, rules, index); err != nil {
		return nil, err
	}
	if err := s.loadActions(ctx, trigger.ID, rules, index); err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *Store) trigger(ctx context.Context, code string) (domain.Trigger, error) {
	var t domain.Trigger
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, name, code FROM rules_ruletrigger WHERE code = ?`), code).
		Scan(&t.ID, &t.Name, &t.Code)
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("%w: %s", domain.ErrUnknownTrigger, code)
	}
	if err != nil {
		return t, fmt.Errorf("select trigger: %w", err)
	}
	return t, nil
}

const labelColumns = `l.id, l.name, l.label_type, COALESCE(l.description, ''), COALESCE(l.color, '')`

func (s *Store) loadGateLabels(ctx context.Context, triggerID int64, rules []domain.Rule, index map[int64]int) error {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT rl.rule_id, `+labelColumns+`
		FROM rules_rule_labels rl
		JOIN labels_label l ON l.id = rl.label_id
		JOIN rules_rule r ON r.id = rl.rule_id
		WHERE r.trigger_id = ? AND r.status = ?
		ORDER BY rl.rule_id, l.id`), triggerID, string(domain.RuleEnabled))
	if err != nil {
		return fmt.Errorf("select gate labels: %w", err)
	}
	for rows.Next() {
		var ruleID int64
		var l domain.Label
		var kind string
		if err := rows.Scan(&ruleID, &l.ID, &l.Name, &kind, &l.Description, &l.Color); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan gate label: %w", err)
		}
		l.Kind = domain.LabelKind(kind)
		if i, ok := index[ruleID]; ok {
			rules[i].GateLabels = append(rules[i].GateLabels, l)
		}
	}
	if err := closeRows(rows); err != nil {
		return fmt.Errorf("select gate labels: %w", err)
	}
	return nil
}

func (s *Store) loadConditions(ctx context.Context, triggerID int64, rules []domain.Rule, index map[int64]int) error {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT c.id, c.rule_id, c.entity, c.operator, `+labelColumns+`
		FROM rules_rulecondition c
		JOIN labels_label l ON l.id = c.label_id
		JOIN rules_rule r ON r.id = c.rule_id
		WHERE r.trigger_id = ? AND r.status = ?
		ORDER BY c.rule_id, c.id`), triggerID, string(domain.RuleEnabled))
	if err != nil {
		return fmt.Errorf("select conditions: %w", err)
	}
	for rows.Next() {
		var c domain.Condition
		var ruleID int64
		var entity, operator, kind string
		if err := rows.Scan(&c.ID, &ruleID, &entity, &operator,
			&c.Label.ID, &c.Label.Name, &kind, &c.Label.Description, &c.Label.Color); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan condition: %w", err)
		}
		c.EntityKind = domain.LabelKind(entity)
		c.Operator = domain.Operator(operator)
		c.Label.Kind = domain.LabelKind(kind)
		if i, ok := index[ruleID]; ok {
			rules[i].Conditions = append(rules[i].Conditions, c)
		}
	}
	if err := closeRows(rows); err != nil {
		return fmt.Errorf("select conditions: %w", err)
	}
	return nil
}

func (s *Store) loadActions(ctx context.Context, triggerID int64, rules []domain.Rule, index map[int64]int) error {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT a.id, a.rule_id, a.action_type, a.action_params
		FROM rules_ruleaction a
		JOIN rules_rule r ON r.id = a.rule_id
		WHERE r.trigger_id = ? AND r.status = ?
		ORDER BY a.rule_id, a.id`), triggerID, string(domain.RuleEnabled))
	if err != nil {
		return fmt.Errorf("select actions: %w", err)
	}
	for rows.Next() {
		var id, ruleID int64
		var actionType string
		var raw []byte
		if err := rows.Scan(&id, &ruleID, &actionType, &raw); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan action: %w", err)
		}
		action := decodeAction(id, domain.ActionType(actionType), raw)
		if i, ok := index[ruleID]; ok {
			rules[i].Actions = append(rules[i].Actions, action)
		}
	}
	if err := closeRows(rows); err != nil {
		return fmt.Errorf("select actions: %w", err)
	}
	return nil
}

// decodeAction never fails; unparsable JSON becomes a skipped action.
func decodeAction(id int64, actionType domain.ActionType, raw []byte) domain.Action {
	params := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return domain.Action{
				ID:   id,
				Type: actionType,
				Err:  fmt.Errorf("%w: %s: %v", domain.ErrInvalidActionParams, actionType, err),
			}
		}
	}
	return domain.NewAction(id, actionType, params)
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	return rows.Close()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
