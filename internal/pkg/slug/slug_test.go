package slug

import (
	"context"
	"testing"

	"github.com/jCool10/LearnSmart-sub001/internal/data/repos/testutil"
	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Go Backend Engineer": "go-backend-engineer",
		"  React & Redux!!  ": "react-redux",
		"Café Résumé":         "cafe-resume",
		"---":                 "item",
		"C++ / Systems  101":  "c-systems-101",
		"already-a-slug":      "already-a-slug",
	}
	for in, want := range cases {
		if got := Make(in, 0); got != want {
			t.Fatalf("Make(%q)=%q want %q", in, got, want)
		}
	}
	if got := Make("abcdefghij", 4); got != "abcd" {
		t.Fatalf("max len: %q", got)
	}
}

func TestEnsureUnique(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	base := "unique-slug-" + Make(t.Name(), 20)
	got, err := EnsureUnique(ctx, tx, "tag", "slug", base, 0)
	if err != nil || got != base {
		t.Fatalf("free slug: got=%q err=%v", got, err)
	}

	if err := tx.Create(&types.Tag{Name: base, Slug: base}).Error; err != nil {
		t.Fatalf("seed tag: %v", err)
	}
	got, err = EnsureUnique(ctx, tx, "tag", "slug", base, 0)
	if err != nil || got != base+"-2" {
		t.Fatalf("taken slug: got=%q err=%v", got, err)
	}
}
