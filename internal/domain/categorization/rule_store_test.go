package categorization

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleStore_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO category_rules").
		WithArgs("PADARIA REAL", CategoryRestaurants, "Padaria Real", 5).
		WillReturnRows(pgxmock.NewRows([]string{
			"pattern", "category", "clean_name", "priority", "match_count",
			"last_matched_at", "created_at", "updated_at",
		}).AddRow("PADARIA REAL", CategoryRestaurants, "Padaria Real", 5, 0, nil, now, now))

	store := NewRuleStore(mock)
	r, err := store.Save(context.Background(), Rule{
		Pattern: " padaria real ", Category: CategoryRestaurants, CleanName: "Padaria Real", Priority: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "PADARIA REAL", r.Pattern)
	assert.True(t, r.User)
	assert.Nil(t, r.LastMatchedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleStore_SaveRejectsIncompleteRule(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewRuleStore(mock).Save(context.Background(), Rule{Pattern: "  "})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleStore_ListFeedsService(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM category_rules").
		WillReturnRows(pgxmock.NewRows([]string{"pattern", "category", "clean_name", "priority"}).
			AddRow("AMAZON", CategoryGroceries, "Amazon Fresh", 0))

	svc := NewDefaultService(nil)
	n, err := svc.LoadRules(context.Background(), NewRuleStore(mock))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	r, ok := svc.Categorize("AMAZON EU SARL")
	require.True(t, ok)
	assert.Equal(t, CategoryGroceries, r.Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleStore_ListError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT pattern").WillReturnError(errors.New("connection reset"))

	_, err = NewDefaultService(nil).LoadRules(context.Background(), NewRuleStore(mock))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list category rules")
}

func TestRuleStore_RecordMatchAndDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE category_rules").
		WithArgs("NETFLIX", 1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("DELETE FROM category_rules").
		WithArgs("NETFLIX").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM category_rules").
		WithArgs("GONE").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	store := NewRuleStore(mock)
	require.NoError(t, store.RecordMatch(context.Background(), "netflix", 1))
	require.NoError(t, store.Delete(context.Background(), "Netflix"))
	assert.ErrorIs(t, store.Delete(context.Background(), "gone"), ErrRuleNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_FlushMatches(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := NewDefaultService(nil)
	svc.AddRule(Rule{Pattern: "padaria real", Category: CategoryRestaurants})

	for _, label := range []string{"COMPRA PADARIA REAL LISBOA", "PADARIA REAL", "NETFLIX.COM"} {
		_, ok := svc.Categorize(label)
		require.True(t, ok)
	}

	// only the user rule is counted, once per hit
	mock.ExpectExec("UPDATE category_rules").
		WithArgs("PADARIA REAL", 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	n, err := svc.FlushMatches(context.Background(), NewRuleStore(mock))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())

	n, err = svc.FlushMatches(context.Background(), NewRuleStore(mock))
	require.NoError(t, err)
	assert.Zero(t, n, "hits are reset after a flush")
}

func TestService_FlushMatchesError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := NewDefaultService(nil)
	svc.AddRule(Rule{Pattern: "padaria real", Category: CategoryRestaurants})
	_, ok := svc.Categorize("PADARIA REAL")
	require.True(t, ok)

	mock.ExpectExec("UPDATE category_rules").WillReturnError(errors.New("connection reset"))

	n, err := svc.FlushMatches(context.Background(), NewRuleStore(mock))
	assert.Zero(t, n)
	assert.ErrorContains(t, err, "record rule match")
}
