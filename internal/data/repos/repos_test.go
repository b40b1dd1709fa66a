package repos

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil},
		{name: "plain", err: errors.New("boom")},
		{name: "gorm duplicated", err: fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), want: true},
		{name: "pg 23505", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), want: true},
		{name: "pg other", err: &pgconn.PgError{Code: "23503"}},
	}
	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err); got != tc.want {
			t.Fatalf("%s: want=%v got=%v", tc.name, tc.want, got)
		}
	}
}
