package repository

import "testing"

func TestLikeOperatorByDialect(t *testing.T) {
	if got := likeOperatorByDialect("postgres"); got != "ILIKE" {
		t.Fatalf("postgres want ILIKE got %s", got)
	}
	if got := likeOperatorByDialect("sqlite"); got != "LIKE" {
		t.Fatalf("sqlite want LIKE got %s", got)
	}
	if got := likeOperatorByDialect("mysql"); got != "LIKE" {
		t.Fatalf("mysql want LIKE got %s", got)
	}
}

func TestBuildLikeConditionSkipsBlankColumns(t *testing.T) {
	cond, args := buildLikeCondition(nil, " vòng ", "name", " ", "sku")
	if cond != "name LIKE ? OR sku LIKE ?" {
		t.Fatalf("unexpected condition: %s", cond)
	}
	if len(args) != 2 || args[0] != "%vòng%" {
		t.Fatalf("unexpected args: %v", args)
	}
}
