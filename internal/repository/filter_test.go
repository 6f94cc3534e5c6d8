package repository

import (
	"reflect"
	"testing"
)

func TestWhereBuilderNumbersPlaceholders(t *testing.T) {
	var w whereBuilder
	w.eq("status", "open")
	w.addf("LOWER(location->>'city') = LOWER($%d)", "Austin")
	w.raw("deleted_at IS NULL")

	want := " WHERE status = $1 AND LOWER(location->>'city') = LOWER($2) AND deleted_at IS NULL"
	if got := w.clause(); got != want {
		t.Fatalf("clause = %q\nwant      %q", got, want)
	}
	suffix, args := w.page(10, 20)
	if suffix != " LIMIT $3 OFFSET $4" {
		t.Fatalf("suffix = %q", suffix)
	}
	if !reflect.DeepEqual(args, []any{"open", "Austin", 10, 20}) {
		t.Fatalf("args = %v", args)
	}
	if len(w.args) != 2 {
		t.Fatalf("page must not mutate the filter args")
	}
}

func TestWhereBuilderEmpty(t *testing.T) {
	var w whereBuilder
	if w.clause() != "" {
		t.Fatalf("empty builder must render no clause")
	}
	suffix, args := w.page(5, 0)
	if suffix != " LIMIT $1 OFFSET $2" || len(args) != 2 {
		t.Fatalf("unexpected page %q %v", suffix, args)
	}
}

func TestLikePatternEscapes(t *testing.T) {
	if got := likePattern("50%_Off"); got != `%50\%\_off%` {
		t.Fatalf("pattern = %q", got)
	}
}
