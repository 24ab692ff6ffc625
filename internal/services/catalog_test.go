package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/pointers"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
)

func TestCategoryCRUD(t *testing.T) {
	env := newTestEnv(t)

	c, err := env.categories.Create(env.ctx, CategoryInput{Name: pointers.String("Web Development"), Description: pointers.String("HTTP things")})
	require.NoError(t, err)
	assert.Equal(t, "web-development", c.Slug)

	_, err = env.categories.Create(env.ctx, CategoryInput{Name: pointers.String("Web Development")})
	assert.True(t, apierr.IsConflict(err))

	_, err = env.categories.Create(env.ctx, CategoryInput{Name: pointers.String("x")})
	assert.True(t, apierr.IsValidation(err))

	updated, err := env.categories.Update(env.ctx, c.ID, CategoryInput{Description: pointers.String("Servers")})
	require.NoError(t, err)
	assert.Equal(t, "Servers", updated.Description)
	assert.Equal(t, "Web Development", updated.Name)

	list, err := env.categories.List(env.ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = env.categories.Get(env.ctx, uuid.New())
	assert.True(t, apierr.IsNotFound(err))
}

func TestDeleteCategoryDetachesRoadmaps(t *testing.T) {
	env := newTestEnv(t)
	c, err := env.categories.Create(env.ctx, CategoryInput{Name: pointers.String("Systems")})
	require.NoError(t, err)
	r, err := env.roadmaps.Create(env.ctx, uuid.Nil, RoadmapInput{
		Title:      pointers.String("Operating Systems"),
		Difficulty: pointers.String(types.DifficultyAdvanced),
		CategoryID: &c.ID,
	})
	require.NoError(t, err)

	require.NoError(t, env.categories.Delete(env.ctx, c.ID))
	got, err := env.roadmaps.Get(env.ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)

	assert.True(t, apierr.IsNotFound(env.categories.Delete(env.ctx, c.ID)))
}

func TestTagLifecycle(t *testing.T) {
	env := newTestEnv(t)
	tag, err := env.tags.Create(env.ctx, TagInput{Name: pointers.String("Machine Learning")})
	require.NoError(t, err)
	assert.Equal(t, "machine-learning", tag.Slug)

	_, err = env.tags.Create(env.ctx, TagInput{Name: pointers.String("Machine Learning")})
	assert.True(t, apierr.IsConflict(err))

	r, err := env.roadmaps.Create(env.ctx, uuid.Nil, RoadmapInput{
		Title:      pointers.String("Intro to ML"),
		Difficulty: pointers.String(types.DifficultyBeginner),
		Tags:       &[]string{"machine learning"},
	})
	require.NoError(t, err)
	require.Len(t, r.Tags, 1)
	assert.Equal(t, tag.ID, r.Tags[0].ID)

	require.NoError(t, env.tags.Delete(env.ctx, tag.ID))
	got, err := env.roadmaps.Get(env.ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)

	assert.True(t, apierr.IsNotFound(env.tags.Delete(env.ctx, tag.ID)))
}
