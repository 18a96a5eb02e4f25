package categorization

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrRuleNotFound is returned when deleting a pattern that is not stored.
var ErrRuleNotFound = errors.New("category rule not found")

// Querier is the subset of a pgx pool the rule store needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StoredRule is a user rule as persisted.
type StoredRule struct {
	Rule
	MatchCount    int        `json:"matchCount"`
	LastMatchedAt *time.Time `json:"lastMatchedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// RuleStore persists user corrections so they survive between runs.
// Patterns are stored normalized; saving an existing pattern replaces it.
type RuleStore struct {
	db Querier
}

// NewRuleStore creates a rule store on db.
func NewRuleStore(db Querier) *RuleStore {
	return &RuleStore{db: db}
}

// Save upserts rule.
func (s *RuleStore) Save(ctx context.Context, rule Rule) (*StoredRule, error) {
	pattern := normalizePattern(rule.Pattern)
	if pattern == "" || rule.Category == "" {
		return nil, fmt.Errorf("category rule needs a pattern and a category")
	}

	query := `
		INSERT INTO category_rules (pattern, category, clean_name, priority)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (pattern) DO UPDATE SET
			category = EXCLUDED.category,
			clean_name = EXCLUDED.clean_name,
			priority = EXCLUDED.priority,
			updated_at = now()
		RETURNING pattern, category, clean_name, priority, match_count,
			last_matched_at, created_at, updated_at
	`

	var r StoredRule
	err := s.db.QueryRow(ctx, query, pattern, rule.Category, rule.CleanName, rule.Priority).Scan(
		&r.Pattern, &r.Category, &r.CleanName, &r.Priority, &r.MatchCount,
		&r.LastMatchedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("save category rule: %w", err)
	}
	r.User = true
	return &r, nil
}

// List returns every stored rule, most used first.
func (s *RuleStore) List(ctx context.Context) ([]Rule, error) {
	query := `
		SELECT pattern, category, clean_name, priority
		FROM category_rules
		ORDER BY match_count DESC, updated_at DESC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list category rules: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		r := Rule{User: true}
		if err := rows.Scan(&r.Pattern, &r.Category, &r.CleanName, &r.Priority); err != nil {
			return nil, fmt.Errorf("scan category rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// RecordMatch adds n to the usage counter of pattern.
func (s *RuleStore) RecordMatch(ctx context.Context, pattern string, n int) error {
	query := `
		UPDATE category_rules
		SET match_count = match_count + $2, last_matched_at = now()
		WHERE pattern = $1
	`
	if _, err := s.db.Exec(ctx, query, normalizePattern(pattern), n); err != nil {
		return fmt.Errorf("record rule match: %w", err)
	}
	return nil
}

// Delete removes the rule stored under pattern.
func (s *RuleStore) Delete(ctx context.Context, pattern string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM category_rules WHERE pattern = $1`, normalizePattern(pattern))
	if err != nil {
		return fmt.Errorf("delete category rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}
