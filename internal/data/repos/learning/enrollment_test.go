package learning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jCool10/LearnSmart-sub001/internal/data/repos/testutil"
	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/dbctx"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/pointers"
)

func TestEnrollmentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewEnrollmentRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "enrollmentrepo-"+uuid.NewString()[:8]+"@example.com")
	r1 := testutil.SeedRoadmap(t, ctx, tx, "first")
	r2 := testutil.SeedRoadmap(t, ctx, tx, "second")

	e1 := &types.Enrollment{UserID: u.ID, RoadmapID: r1.ID, EnrolledAt: time.Now().Add(-time.Hour).UTC()}
	e2 := &types.Enrollment{UserID: u.ID, RoadmapID: r2.ID}
	if _, err := repo.Create(dbc, []*types.Enrollment{e1, e2}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByUserAndRoadmap(dbc, u.ID, r1.ID)
	if err != nil || got == nil || got.ID != e1.ID || got.Progress != 0 || got.IsCompleted {
		t.Fatalf("GetByUserAndRoadmap: err=%v got=%+v", err, got)
	}
	if got.AverageScore != nil || got.CompletedAt != nil {
		t.Fatalf("new enrollment should have null aggregates: %+v", got)
	}
	if missing, err := repo.GetByUserAndRoadmap(dbc, uuid.New(), r1.ID); err != nil || missing != nil {
		t.Fatalf("GetByUserAndRoadmap missing: err=%v got=%+v", err, missing)
	}

	now := time.Now().UTC()
	if err := repo.UpdateFields(dbc, e1.ID, map[string]interface{}{
		"progress":      100,
		"average_score": 90.0,
		"is_completed":  true,
		"completed_at":  now,
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, _ = repo.GetByUserAndRoadmap(dbc, u.ID, r1.ID)
	if got.Progress != 100 || !got.IsCompleted || got.AverageScore == nil || *got.AverageScore != 90 || got.CompletedAt == nil {
		t.Fatalf("after UpdateFields: %+v", got)
	}
	if err := repo.UpdateFields(dbc, e1.ID, map[string]interface{}{
		"average_score": nil,
		"completed_at":  nil,
		"is_completed":  false,
	}); err != nil {
		t.Fatalf("UpdateFields clear: %v", err)
	}
	got, _ = repo.GetByUserAndRoadmap(dbc, u.ID, r1.ID)
	if got.AverageScore != nil || got.CompletedAt != nil || got.IsCompleted {
		t.Fatalf("after clearing: %+v", got)
	}

	rows, total, err := repo.ListByUser(dbc, u.ID, EnrollmentFilter{Limit: 10})
	if err != nil || total != 2 || len(rows) != 2 {
		t.Fatalf("ListByUser: err=%v total=%d len=%d", err, total, len(rows))
	}
	if rows[0].ID != e2.ID || rows[0].Roadmap == nil || rows[0].Roadmap.ID != r2.ID {
		t.Fatalf("ListByUser order/preload: %+v", rows[0])
	}
	if _, total, err = repo.ListByUser(dbc, u.ID, EnrollmentFilter{Completed: pointers.Bool(true)}); err != nil || total != 0 {
		t.Fatalf("ListByUser completed: err=%v total=%d", err, total)
	}

	if n, err := repo.CountByRoadmapID(dbc, r1.ID); err != nil || n != 1 {
		t.Fatalf("CountByRoadmapID: err=%v n=%d", err, n)
	}
	if rows, err := repo.GetByRoadmapID(dbc, r2.ID); err != nil || len(rows) != 1 {
		t.Fatalf("GetByRoadmapID: err=%v len=%d", err, len(rows))
	}

	if err := repo.FullDeleteByIDs(dbc, []uuid.UUID{e1.ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	if got, err := repo.GetByUserAndRoadmap(dbc, u.ID, r1.ID); err != nil || got != nil {
		t.Fatalf("after FullDeleteByIDs: err=%v got=%+v", err, got)
	}

	dup := &types.Enrollment{UserID: u.ID, RoadmapID: r2.ID}
	if _, err := repo.Create(dbc, []*types.Enrollment{dup}); err == nil {
		t.Fatalf("expected unique violation for duplicate enrollment")
	}
}
