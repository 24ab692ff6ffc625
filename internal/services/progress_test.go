package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jCool10/LearnSmart-sub001/internal/data/repos/testutil"
	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/pointers"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
)

func TestPercentRoundsHalfUp(t *testing.T) {
	cases := []struct {
		part, whole int64
		want        int
	}{
		{0, 0, 0},
		{0, 4, 0},
		{1, 3, 33},
		{2, 3, 67},
		{5, 6, 83},
		{1, 8, 13},
		{1, 2, 50},
		{5, 5, 100},
		{1, 200, 1},
		{1, 201, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, percent(tc.part, tc.whole), "%d/%d", tc.part, tc.whole)
	}
}

func TestSummarizeCountsOnlyCompletedActiveRows(t *testing.T) {
	a, b, c, inactive := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	rows := []*types.LessonProgress{
		{LessonID: a, IsCompleted: true, Score: pointers.Float64(80)},
		{LessonID: b, IsCompleted: true},
		{LessonID: c, IsCompleted: false, Score: pointers.Float64(10)},
		{LessonID: inactive, IsCompleted: true, Score: pointers.Float64(0)},
		nil,
	}
	sum := summarize([]uuid.UUID{a, b, c}, rows)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.Completed)
	assert.Equal(t, 67, sum.Progress)
	require.NotNil(t, sum.AverageScore)
	assert.Equal(t, 80.0, *sum.AverageScore)

	empty := summarize(nil, rows)
	assert.Equal(t, 0, empty.Progress)
	assert.Nil(t, empty.AverageScore)
}

func TestCompletionTransition(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	done, at := completionTransition(false, nil, 100, t1)
	assert.True(t, done)
	require.NotNil(t, at)
	assert.True(t, at.Equal(t1))

	done, at = completionTransition(true, &t0, 100, t1)
	assert.True(t, done)
	assert.True(t, at.Equal(t0), "completedAt must not move while complete")

	done, at = completionTransition(true, &t0, 99, t1)
	assert.False(t, done)
	assert.Nil(t, at)
}

func TestProgressEndToEndScenario(t *testing.T) {
	env := newTestEnv(t)
	roadmap, lessons := env.seedRoadmap(t, 3)
	user := env.enrolledUser(t, roadmap.ID)

	_, err := env.progress.CompleteLesson(env.ctx, user.ID, lessons[0].ID, pointers.Float64(90))
	require.NoError(t, err)
	e := env.reloadEnrollment(t, user.ID, roadmap.ID)
	assert.Equal(t, 33, e.Progress)
	require.NotNil(t, e.AverageScore)
	assert.Equal(t, 90.0, *e.AverageScore)
	assert.False(t, e.IsCompleted)
	assert.Nil(t, e.CompletedAt)

	_, err = env.progress.CompleteLesson(env.ctx, user.ID, lessons[1].ID, pointers.Float64(80))
	require.NoError(t, err)
	e = env.reloadEnrollment(t, user.ID, roadmap.ID)
	assert.Equal(t, 67, e.Progress)
	assert.Equal(t, 85.0, *e.AverageScore)

	completedAt := env.clock.Now()
	_, err = env.progress.CompleteLesson(env.ctx, user.ID, lessons[2].ID, pointers.Float64(100))
	require.NoError(t, err)
	e = env.reloadEnrollment(t, user.ID, roadmap.ID)
	assert.Equal(t, 100, e.Progress)
	assert.Equal(t, 90.0, *e.AverageScore)
	assert.True(t, e.IsCompleted)
	require.NotNil(t, e.CompletedAt)
	assert.False(t, e.CompletedAt.Before(completedAt))

	// Re-running changes nothing, including the completion timestamp.
	env.clock.Advance(time.Hour)
	again, err := env.progress.Recalculate(env.ctx, user.ID, roadmap.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, again.Progress)
	assert.True(t, again.IsCompleted)
	require.NotNil(t, again.CompletedAt)
	assert.True(t, again.CompletedAt.Equal(*e.CompletedAt))
}

func TestRecalculateZeroLessonRoadmap(t *testing.T) {
	env := newTestEnv(t)
	roadmap, _ := env.seedRoadmap(t, 0)
	user := env.enrolledUser(t, roadmap.ID)

	e, err := env.progress.Recalculate(env.ctx, user.ID, roadmap.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, e.Progress)
	assert.False(t, e.IsCompleted)
	assert.Nil(t, e.CompletedAt)
	assert.Nil(t, e.AverageScore)
}

func TestRecalculateRequiresEnrollment(t *testing.T) {
	env := newTestEnv(t)
	roadmap, _ := env.seedRoadmap(t, 2)
	user := env.seedUser(t)

	_, err := env.progress.Recalculate(env.ctx, user.ID, roadmap.ID)
	assert.True(t, apierr.IsNotFound(err), "got %v", err)
}

func TestRecalculateConvergesAfterDirectWrites(t *testing.T) {
	env := newTestEnv(t)
	roadmap, lessons := env.seedRoadmap(t, 4)
	user := env.enrolledUser(t, roadmap.ID)

	// Rows written behind the aggregator's back leave the enrollment stale.
	testutil.SeedLessonProgress(t, env.ctx, env.db, user.ID, lessons[0].ID, true, pointers.Float64(70))
	testutil.SeedLessonProgress(t, env.ctx, env.db, user.ID, lessons[1].ID, true, nil)
	assert.Equal(t, 0, env.reloadEnrollment(t, user.ID, roadmap.ID).Progress)

	e, err := env.progress.Recalculate(env.ctx, user.ID, roadmap.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, e.Progress)
	require.NotNil(t, e.AverageScore)
	assert.Equal(t, 70.0, *e.AverageScore)
	assert.Equal(t, 50, env.reloadEnrollment(t, user.ID, roadmap.ID).Progress)
}

func TestNewLessonRegressesCompletedEnrollment(t *testing.T) {
	env := newTestEnv(t)
	roadmap, lessons := env.seedRoadmap(t, 5)
	user := env.enrolledUser(t, roadmap.ID)
	for _, l := range lessons {
		_, err := env.progress.CompleteLesson(env.ctx, user.ID, l.ID, nil)
		require.NoError(t, err)
	}
	e := env.reloadEnrollment(t, user.ID, roadmap.ID)
	require.True(t, e.IsCompleted)
	assert.Nil(t, e.AverageScore)

	_, err := env.lessons.Create(env.ctx, roadmap.ID, LessonInput{Title: pointers.String("Bonus lesson")})
	require.NoError(t, err)

	e = env.reloadEnrollment(t, user.ID, roadmap.ID)
	assert.Equal(t, 83, e.Progress)
	assert.False(t, e.IsCompleted)
	assert.Nil(t, e.CompletedAt)
}

func TestLessonDeactivationRaisesProgress(t *testing.T) {
	env := newTestEnv(t)
	roadmap, lessons := env.seedRoadmap(t, 4)
	user := env.enrolledUser(t, roadmap.ID)
	for _, l := range lessons[:2] {
		_, err := env.progress.CompleteLesson(env.ctx, user.ID, l.ID, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 50, env.reloadEnrollment(t, user.ID, roadmap.ID).Progress)

	_, err := env.lessons.SetActive(env.ctx, lessons[3].ID, false)
	require.NoError(t, err)
	assert.Equal(t, 67, env.reloadEnrollment(t, user.ID, roadmap.ID).Progress)

	_, err = env.lessons.SetActive(env.ctx, lessons[2].ID, false)
	require.NoError(t, err)
	e := env.reloadEnrollment(t, user.ID, roadmap.ID)
	assert.Equal(t, 100, e.Progress)
	assert.True(t, e.IsCompleted)
	assert.NotNil(t, e.CompletedAt)

	r, err := env.roadmaps.Get(env.ctx, roadmap.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, r.TotalLessons)
}

func TestUncompleteClearsRowAndExcludesScore(t *testing.T) {
	env := newTestEnv(t)
	roadmap, lessons := env.seedRoadmap(t, 2)
	user := env.enrolledUser(t, roadmap.ID)

	_, err := env.progress.CompleteLesson(env.ctx, user.ID, lessons[0].ID, pointers.Float64(40))
	require.NoError(t, err)
	_, err = env.progress.CompleteLesson(env.ctx, user.ID, lessons[1].ID, pointers.Float64(100))
	require.NoError(t, err)
	require.True(t, env.reloadEnrollment(t, user.ID, roadmap.ID).IsCompleted)

	row, err := env.progress.UncompleteLesson(env.ctx, user.ID, lessons[0].ID)
	require.NoError(t, err)
	assert.False(t, row.IsCompleted)
	assert.Nil(t, row.CompletedAt)
	require.NotNil(t, row.Score, "score is kept on the row")

	e := env.reloadEnrollment(t, user.ID, roadmap.ID)
	assert.Equal(t, 50, e.Progress)
	assert.False(t, e.IsCompleted)
	assert.Nil(t, e.CompletedAt)
	require.NotNil(t, e.AverageScore)
	assert.Equal(t, 100.0, *e.AverageScore)
}

func TestUpdateLessonProgressPartialInput(t *testing.T) {
	env := newTestEnv(t)
	roadmap, lessons := env.seedRoadmap(t, 2)
	user := env.enrolledUser(t, roadmap.ID)

	row, err := env.progress.UpdateLessonProgress(env.ctx, user.ID, lessons[0].ID, LessonProgressInput{TimeSpent: pointers.Int(120)})
	require.NoError(t, err)
	assert.False(t, row.IsCompleted)
	assert.Equal(t, 120, row.TimeSpent)
	assert.NotNil(t, row.LastAccessedAt)

	row, err = env.progress.UpdateLessonProgress(env.ctx, user.ID, lessons[0].ID, LessonProgressInput{IsCompleted: pointers.Bool(true)})
	require.NoError(t, err)
	assert.True(t, row.IsCompleted)
	assert.Equal(t, 120, row.TimeSpent, "unset fields keep their value")
	assert.Equal(t, 50, env.reloadEnrollment(t, user.ID, roadmap.ID).Progress)
}

func TestUpdateLessonProgressErrors(t *testing.T) {
	env := newTestEnv(t)
	roadmap, lessons := env.seedRoadmap(t, 1)
	enrolled := env.enrolledUser(t, roadmap.ID)
	stranger := env.seedUser(t)

	_, err := env.progress.UpdateLessonProgress(env.ctx, enrolled.ID, uuid.New(), LessonProgressInput{IsCompleted: pointers.Bool(true)})
	assert.True(t, apierr.IsNotFound(err), "missing lesson: %v", err)

	_, err = env.progress.UpdateLessonProgress(env.ctx, stranger.ID, lessons[0].ID, LessonProgressInput{IsCompleted: pointers.Bool(true)})
	assert.True(t, apierr.IsNotFound(err), "not enrolled: %v", err)

	_, err = env.progress.UpdateLessonProgress(env.ctx, enrolled.ID, lessons[0].ID, LessonProgressInput{Score: pointers.Float64(101)})
	require.True(t, apierr.IsValidation(err), "score: %v", err)
	ae, _ := apierr.As(err)
	require.Len(t, ae.Fields, 1)
	assert.Equal(t, "score", ae.Fields[0].Field)

	_, err = env.progress.UpdateLessonProgress(env.ctx, enrolled.ID, lessons[0].ID, LessonProgressInput{TimeSpent: pointers.Int(-1)})
	assert.True(t, apierr.IsValidation(err), "timeSpent: %v", err)

	assert.Equal(t, 0, env.countProgressRows(t, enrolled.ID, roadmap.ID))
}

func TestResetProgress(t *testing.T) {
	env := newTestEnv(t)
	roadmap, lessons := env.seedRoadmap(t, 2)
	user := env.enrolledUser(t, roadmap.ID)
	for _, l := range lessons {
		_, err := env.progress.CompleteLesson(env.ctx, user.ID, l.ID, pointers.Float64(75))
		require.NoError(t, err)
	}
	// Progress on a deactivated lesson is cleared too.
	_, err := env.lessons.SetActive(env.ctx, lessons[1].ID, false)
	require.NoError(t, err)

	e, err := env.progress.ResetProgress(env.ctx, user.ID, roadmap.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, e.Progress)
	assert.False(t, e.IsCompleted)
	assert.Nil(t, e.CompletedAt)
	assert.Nil(t, e.AverageScore)

	stored := env.reloadEnrollment(t, user.ID, roadmap.ID)
	assert.Equal(t, 0, stored.Progress)
	assert.Nil(t, stored.AverageScore)
	assert.Equal(t, 0, env.countProgressRows(t, user.ID, roadmap.ID))

	_, err = env.progress.ResetProgress(env.ctx, env.seedUser(t).ID, roadmap.ID)
	assert.True(t, apierr.IsNotFound(err))
}

func TestBulkUpdateValidatesBeforeWriting(t *testing.T) {
	env := newTestEnv(t)
	roadmap, lessons := env.seedRoadmap(t, 3)
	_, otherLessons := env.seedRoadmap(t, 1)
	user := env.enrolledUser(t, roadmap.ID)

	_, _, err := env.progress.BulkUpdateLessonProgress(env.ctx, user.ID, roadmap.ID, []BulkLessonProgressItem{
		{LessonID: lessons[0].ID, LessonProgressInput: LessonProgressInput{IsCompleted: pointers.Bool(true)}},
		{LessonID: lessons[1].ID, LessonProgressInput: LessonProgressInput{Score: pointers.Float64(150)}},
	})
	require.True(t, apierr.IsValidation(err), "got %v", err)
	ae, _ := apierr.As(err)
	require.Len(t, ae.Fields, 1)
	assert.Equal(t, "items[1].score", ae.Fields[0].Field)
	assert.Equal(t, 0, env.countProgressRows(t, user.ID, roadmap.ID))

	_, _, err = env.progress.BulkUpdateLessonProgress(env.ctx, user.ID, roadmap.ID, []BulkLessonProgressItem{
		{LessonID: lessons[0].ID, LessonProgressInput: LessonProgressInput{IsCompleted: pointers.Bool(true)}},
		{LessonID: otherLessons[0].ID, LessonProgressInput: LessonProgressInput{IsCompleted: pointers.Bool(true)}},
	})
	require.True(t, apierr.IsValidation(err), "got %v", err)
	assert.Equal(t, 0, env.countProgressRows(t, user.ID, roadmap.ID))

	_, _, err = env.progress.BulkUpdateLessonProgress(env.ctx, user.ID, roadmap.ID, nil)
	assert.True(t, apierr.IsValidation(err))

	rows, e, err := env.progress.BulkUpdateLessonProgress(env.ctx, user.ID, roadmap.ID, []BulkLessonProgressItem{
		{LessonID: lessons[0].ID, LessonProgressInput: LessonProgressInput{IsCompleted: pointers.Bool(true), Score: pointers.Float64(60)}},
		{LessonID: lessons[1].ID, LessonProgressInput: LessonProgressInput{IsCompleted: pointers.Bool(true), Score: pointers.Float64(80)}},
		{LessonID: lessons[2].ID, LessonProgressInput: LessonProgressInput{TimeSpent: pointers.Int(30)}},
	})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	require.NotNil(t, e)
	assert.Equal(t, 67, e.Progress)
	assert.Equal(t, 70.0, *e.AverageScore)
}

func TestManualProgressIsOverwrittenByRecalculation(t *testing.T) {
	env := newTestEnv(t)
	roadmap, lessons := env.seedRoadmap(t, 4)
	user := env.enrolledUser(t, roadmap.ID)

	e, err := env.progress.SetManualProgress(env.ctx, user.ID, roadmap.ID, pointers.Int(100))
	require.NoError(t, err)
	assert.Equal(t, 100, e.Progress)
	assert.True(t, e.IsCompleted)
	assert.NotNil(t, e.CompletedAt)

	_, err = env.progress.CompleteLesson(env.ctx, user.ID, lessons[0].ID, nil)
	require.NoError(t, err)
	e = env.reloadEnrollment(t, user.ID, roadmap.ID)
	assert.Equal(t, 25, e.Progress)
	assert.False(t, e.IsCompleted)
	assert.Nil(t, e.CompletedAt)

	_, err = env.progress.SetManualProgress(env.ctx, user.ID, roadmap.ID, pointers.Int(101))
	assert.True(t, apierr.IsValidation(err))
	_, err = env.progress.SetManualProgress(env.ctx, user.ID, roadmap.ID, nil)
	assert.True(t, apierr.IsValidation(err))
	_, err = env.progress.SetManualProgress(env.ctx, env.seedUser(t).ID, roadmap.ID, pointers.Int(10))
	assert.True(t, apierr.IsNotFound(err))
}

func TestRecalculateAll(t *testing.T) {
	env := newTestEnv(t)
	roadmap, lessons := env.seedRoadmap(t, 2)
	u1 := env.enrolledUser(t, roadmap.ID)
	u2 := env.enrolledUser(t, roadmap.ID)
	testutil.SeedLessonProgress(t, env.ctx, env.db, u1.ID, lessons[0].ID, true, nil)
	testutil.SeedLessonProgress(t, env.ctx, env.db, u2.ID, lessons[0].ID, true, nil)
	testutil.SeedLessonProgress(t, env.ctx, env.db, u2.ID, lessons[1].ID, true, nil)

	n, err := env.progress.RecalculateAll(env.ctx, roadmap.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 50, env.reloadEnrollment(t, u1.ID, roadmap.ID).Progress)
	assert.True(t, env.reloadEnrollment(t, u2.ID, roadmap.ID).IsCompleted)

	_, err = env.progress.RecalculateAll(env.ctx, uuid.New())
	assert.True(t, apierr.IsNotFound(err))
}

func TestInactiveLessonRejectsProgress(t *testing.T) {
	env := newTestEnv(t)
	roadmap, lessons := env.seedRoadmap(t, 2)
	user := env.enrolledUser(t, roadmap.ID)
	_, err := env.lessons.SetActive(env.ctx, lessons[1].ID, false)
	require.NoError(t, err)

	_, err = env.progress.UpdateLessonProgress(env.ctx, user.ID, lessons[1].ID, LessonProgressInput{IsCompleted: pointers.Bool(true)})
	assert.True(t, apierr.IsNotFound(err), "update: %v", err)
	_, err = env.progress.CompleteLesson(env.ctx, user.ID, lessons[1].ID, nil)
	assert.True(t, apierr.IsNotFound(err), "complete: %v", err)

	_, _, err = env.progress.BulkUpdateLessonProgress(env.ctx, user.ID, roadmap.ID, []BulkLessonProgressItem{
		{LessonID: lessons[0].ID, LessonProgressInput: LessonProgressInput{IsCompleted: pointers.Bool(true)}},
		{LessonID: lessons[1].ID, LessonProgressInput: LessonProgressInput{IsCompleted: pointers.Bool(true)}},
	})
	require.True(t, apierr.IsValidation(err), "bulk: %v", err)
	ae, _ := apierr.As(err)
	require.Len(t, ae.Fields, 1)
	assert.Equal(t, "items[1].lessonId", ae.Fields[0].Field)
	assert.Equal(t, 0, env.countProgressRows(t, user.ID, roadmap.ID))

	_, err = env.progress.CompleteLesson(env.ctx, user.ID, lessons[0].ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 100, env.reloadEnrollment(t, user.ID, roadmap.ID).Progress)
}
