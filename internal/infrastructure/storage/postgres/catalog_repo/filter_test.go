package catalog_repo

import (
	"testing"

	"mesa/internal/core/apperror"
)

func testRepo() *BaseCatalogRepo[any] {
	return NewBaseCatalogRepo[any](nil, "test_table", []string{"id", "code", "name", "price"}, func() any { return nil })
}

func TestParseOrderBy(t *testing.T) {
	repo := testRepo()

	tests := []struct {
		name    string
		orderBy string
		want    string
	}{
		{"default", "", "name ASC"},
		{"plain field", "code", "code ASC"},
		{"explicit ascending", "+code", "code ASC"},
		{"descending", "-created_at", "created_at DESC"},
		{"select column", "price", "price ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.parseOrderBy(tt.orderBy)
			if err != nil {
				t.Fatalf("parseOrderBy(%q) failed: %v", tt.orderBy, err)
			}
			if got != tt.want {
				t.Errorf("parseOrderBy(%q) = %q, want %q", tt.orderBy, got, tt.want)
			}
		})
	}
}

func TestParseOrderBy_RejectsUnknownColumns(t *testing.T) {
	repo := testRepo()

	// Column allow-listing is the injection barrier for user-supplied sort
	for _, orderBy := range []string{"password", "-secret", "name; DROP TABLE test_table", "-"} {
		if _, err := repo.parseOrderBy(orderBy); !apperror.IsValidation(err) {
			t.Errorf("parseOrderBy(%q): expected validation error, got %v", orderBy, err)
		}
	}
}

func TestBaseSelect(t *testing.T) {
	repo := testRepo()

	sql, _, err := repo.baseSelect().ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	want := "SELECT id, code, name, price FROM test_table"
	if sql != want {
		t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", want, sql)
	}
}
