package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/BloggingApp/threadly/internal/model"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMaxLimit(t *testing.T) {
	cases := map[int]int{
		-1:            MAX_LIMIT,
		0:             MAX_LIMIT,
		10:            10,
		MAX_LIMIT + 1: MAX_LIMIT,
	}
	for in, expected := range cases {
		limit := in
		maxLimit(&limit)
		if limit != expected {
			t.Errorf("maxLimit(%d): expected %d, got %d", in, expected, limit)
		}
	}
}

func TestOrderClause(t *testing.T) {
	if clause := orderClause(model.SortByUpvotes); !strings.HasPrefix(clause, " ORDER BY upvote_count DESC") {
		t.Errorf("upvotes order must sort by count first, got %q", clause)
	}
	if clause := orderClause(model.SortByRecent); !strings.HasPrefix(clause, " ORDER BY created_at DESC") {
		t.Errorf("recent order must sort by creation time first, got %q", clause)
	}
}

func TestMapUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if err := mapUniqueViolation(wrapped); err != ErrUniqueViolation {
		t.Errorf("expected ErrUniqueViolation, got %v", err)
	}

	other := errors.New("connection refused")
	if err := mapUniqueViolation(other); err != other {
		t.Errorf("expected error to pass through, got %v", err)
	}
}
