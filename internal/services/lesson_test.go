package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jCool10/LearnSmart-sub001/internal/pkg/pointers"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
)

func TestCreateLessonAppendsAndRecalculates(t *testing.T) {
	env := newTestEnv(t)
	roadmap, lessons := env.seedRoadmap(t, 2)
	user := env.enrolledUser(t, roadmap.ID)
	for _, l := range lessons {
		_, err := env.progress.CompleteLesson(env.ctx, user.ID, l.ID, nil)
		require.NoError(t, err)
	}
	require.True(t, env.reloadEnrollment(t, user.ID, roadmap.ID).IsCompleted)

	l, err := env.lessons.Create(env.ctx, roadmap.ID, LessonInput{Title: pointers.String(" Generics ")})
	require.NoError(t, err)
	assert.Equal(t, 3, l.OrderIndex)
	assert.Equal(t, "Generics", l.Title)
	assert.True(t, l.IsActive)

	got, err := env.roadmaps.Get(env.ctx, roadmap.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalLessons)

	e := env.reloadEnrollment(t, user.ID, roadmap.ID)
	assert.Equal(t, 67, e.Progress)
	assert.False(t, e.IsCompleted)
	assert.Nil(t, e.CompletedAt)
}

func TestCreateLessonErrors(t *testing.T) {
	env := newTestEnv(t)
	roadmap, _ := env.seedRoadmap(t, 1)

	_, err := env.lessons.Create(env.ctx, roadmap.ID, LessonInput{Title: pointers.String("Dup"), OrderIndex: pointers.Int(1)})
	assert.True(t, apierr.IsConflict(err), "got %v", err)

	_, err = env.lessons.Create(env.ctx, uuid.New(), LessonInput{Title: pointers.String("Orphan")})
	assert.True(t, apierr.IsNotFound(err))

	_, err = env.lessons.Create(env.ctx, roadmap.ID, LessonInput{Title: pointers.String("  "), OrderIndex: pointers.Int(0)})
	assert.True(t, apierr.IsValidation(err))
}

func TestListAndUpdateLessons(t *testing.T) {
	env := newTestEnv(t)
	roadmap, lessons := env.seedRoadmap(t, 3)

	_, err := env.lessons.SetActive(env.ctx, lessons[2].ID, false)
	require.NoError(t, err)

	active, err := env.lessons.ListByRoadmap(env.ctx, roadmap.ID, false)
	require.NoError(t, err)
	assert.Len(t, active, 2)
	all, err := env.lessons.ListByRoadmap(env.ctx, roadmap.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	updated, err := env.lessons.Update(env.ctx, lessons[0].ID, LessonInput{
		Title:         pointers.String("Intro"),
		EstimatedTime: pointers.Int(25),
	})
	require.NoError(t, err)
	assert.Equal(t, "Intro", updated.Title)
	assert.Equal(t, 25, updated.EstimatedTime)

	_, err = env.lessons.Update(env.ctx, lessons[0].ID, LessonInput{OrderIndex: pointers.Int(2)})
	assert.True(t, apierr.IsConflict(err))

	reactivated, err := env.lessons.Update(env.ctx, lessons[2].ID, LessonInput{IsActive: pointers.Bool(true)})
	require.NoError(t, err)
	assert.True(t, reactivated.IsActive)
	got, err := env.roadmaps.Get(env.ctx, roadmap.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalLessons)

	_, err = env.lessons.Get(env.ctx, uuid.New())
	assert.True(t, apierr.IsNotFound(err))
}

func TestReorderLessons(t *testing.T) {
	env := newTestEnv(t)
	roadmap, lessons := env.seedRoadmap(t, 3)

	out, err := env.lessons.Reorder(env.ctx, roadmap.ID, []uuid.UUID{lessons[2].ID, lessons[0].ID, lessons[1].ID})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, lessons[2].ID, out[0].ID)
	assert.Equal(t, 1, out[0].OrderIndex)
	assert.Equal(t, lessons[1].ID, out[2].ID)
	assert.Equal(t, 3, out[2].OrderIndex)

	cases := map[string][]uuid.UUID{
		"empty":      nil,
		"missing":    {lessons[0].ID, lessons[1].ID},
		"duplicate":  {lessons[0].ID, lessons[0].ID, lessons[1].ID},
		"foreign id": {lessons[0].ID, lessons[1].ID, uuid.New()},
	}
	for name, ids := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.lessons.Reorder(env.ctx, roadmap.ID, ids)
			ae, ok := apierr.As(err)
			require.True(t, ok, "got %v", err)
			require.Len(t, ae.Fields, 1)
			assert.Equal(t, "lessonIds", ae.Fields[0].Field)
		})
	}
}
