package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Victor-armando18/service-rules/internal/domain"
)

// schema is valid for both SQLite and Postgres.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS labels_label (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		label_type TEXT NOT NULL,
		description TEXT,
		color TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS rules_ruletrigger (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS rules_rule (
		id BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL,
		trigger_id BIGINT NOT NULL REFERENCES rules_ruletrigger(id)
	)`,
	`CREATE TABLE IF NOT EXISTS rules_rule_labels (
		rule_id BIGINT NOT NULL REFERENCES rules_rule(id),
		label_id BIGINT NOT NULL REFERENCES labels_label(id),
		PRIMARY KEY (rule_id, label_id)
	)`,
	`CREATE TABLE IF NOT EXISTS rules_rulecondition (
		id BIGINT PRIMARY KEY,
		rule_id BIGINT NOT NULL REFERENCES rules_rule(id),
		entity TEXT NOT NULL,
		operator TEXT NOT NULL,
		label_id BIGINT NOT NULL REFERENCES labels_label(id)
	)`,
	`CREATE TABLE IF NOT EXISTS rules_ruleaction (
		id BIGINT PRIMARY KEY,
		rule_id BIGINT NOT NULL REFERENCES rules_rule(id),
		action_type TEXT NOT NULL,
		action_params TEXT
	)`,
}

// EnsureSchema creates the rule tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// Import replaces the stored rule configuration with pack in one transaction.
func (s *Store) Import(ctx context.Context, pack *domain.RulePack) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"rules_ruleaction", "rules_rulecondition", "rules_rule_labels", "rules_rule", "rules_ruletrigger", "labels_label"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, l := range pack.Labels {
		if err = s.exec(ctx, tx, `INSERT INTO labels_label (id, name, label_type, description, color) VALUES (?, ?, ?, ?, ?)`,
			l.ID, l.Name, string(l.Kind), l.Description, l.Color); err != nil {
			return err
		}
	}
	for _, t := range pack.Triggers {
		if err = s.exec(ctx, tx, `INSERT INTO rules_ruletrigger (id, name, code) VALUES (?, ?, ?)`, t.ID, t.Name, t.Code); err != nil {
			return err
		}
	}
	for _, r := range pack.Rules {
		if err = s.exec(ctx, tx, `INSERT INTO rules_rule (id, name, description, status, trigger_id) VALUES (?, ?, ?, ?, ?)`,
			r.ID, r.Name, r.Description, string(r.Status), r.Trigger.ID); err != nil {
			return err
		}
		for _, l := range r.GateLabels {
			if err = s.exec(ctx, tx, `INSERT INTO rules_rule_labels (rule_id, label_id) VALUES (?, ?)`, r.ID, l.ID); err != nil {
				return err
			}
		}
		for _, c := range r.Conditions {
			if err = s.exec(ctx, tx, `INSERT INTO rules_rulecondition (id, rule_id, entity, operator, label_id) VALUES (?, ?, ?, ?, ?)`,
				c.ID, r.ID, string(c.EntityKind), string(c.Operator), c.Label.ID); err != nil {
				return err
			}
		}
		for _, a := range r.Actions {
			var params []byte
			if params, err = json.Marshal(a.Params); err != nil {
				return fmt.Errorf("encode action %d params: %w", a.ID, err)
			}
			if err = s.exec(ctx, tx, `INSERT INTO rules_ruleaction (id, rule_id, action_type, action_params) VALUES (?, ?, ?, ?)`,
				a.ID, r.ID, string(a.Type), string(params)); err != nil {
				return err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func (s *Store) exec(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
	if _, err := tx.ExecContext(ctx, s.rebind(query), args...); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	return nil
}
