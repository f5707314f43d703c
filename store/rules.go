package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jask/smssensor"
)

// ActiveRules returns enabled rules ordered by priority, then name for a
// stable order between equal priorities.
func (s *SQLite) ActiveRules(ctx context.Context) ([]smssensor.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, name, priority, enabled, conditions, actions
	FROM rules WHERE enabled = 1 ORDER BY priority ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []smssensor.Rule
	for rows.Next() {
		var rule smssensor.Rule
		var conditions, actions string
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.Priority, &rule.Enabled, &conditions, &actions); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(conditions), &rule.Conditions); err != nil {
			return nil, fmt.Errorf("decode rule %s conditions: %w", rule.ID, err)
		}
		if err := json.Unmarshal([]byte(actions), &rule.Actions); err != nil {
			return nil, fmt.Errorf("decode rule %s actions: %w", rule.ID, err)
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// SaveRule inserts or replaces a rule definition.
func (s *SQLite) SaveRule(ctx context.Context, rule smssensor.Rule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("encode conditions: %w", err)
	}
	actions, err := json.Marshal(rule.Actions)
	if err != nil {
		return fmt.Errorf("encode actions: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO rules(id, name, priority, enabled, conditions, actions, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
	 name = excluded.name, priority = excluded.priority, enabled = excluded.enabled,
	 conditions = excluded.conditions, actions = excluded.actions,
	 updated_at = CURRENT_TIMESTAMP`,
		rule.ID, rule.Name, rule.Priority, rule.Enabled, string(conditions), string(actions))
	return err
}

// MerchantCategoryOverride returns the user's category for a merchant, or
// the empty string when none is set.
func (s *SQLite) MerchantCategoryOverride(ctx context.Context, merchant string) (string, error) {
	var category string
	err := s.db.QueryRowContext(ctx, `
	SELECT category FROM merchant_overrides WHERE merchant = ?`, merchant).Scan(&category)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return category, nil
}

// SetMerchantCategoryOverride pins a merchant to a category.
func (s *SQLite) SetMerchantCategoryOverride(ctx context.Context, merchant, category string) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO merchant_overrides(merchant, category) VALUES(?, ?)
	ON CONFLICT(merchant) DO UPDATE SET category = excluded.category`,
		merchant, category)
	return err
}
