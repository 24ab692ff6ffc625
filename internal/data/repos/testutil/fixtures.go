package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		Role:      types.RoleUser,
		IsActive:  true,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCategory(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Category {
	tb.Helper()
	c := &types.Category{
		ID:   uuid.New(),
		Name: name,
		Slug: fmt.Sprintf("%s-%s", name, uuid.NewString()[:8]),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

func SeedRoadmap(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *types.Roadmap {
	tb.Helper()
	r := &types.Roadmap{
		ID:         uuid.New(),
		Title:      title,
		Slug:       fmt.Sprintf("roadmap-%s", uuid.NewString()[:8]),
		Difficulty: types.DifficultyBeginner,
		IsActive:   true,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed roadmap: %v", err)
	}
	return r
}

// SeedLessons creates n active lessons with order indexes 1..n.
func SeedLessons(tb testing.TB, ctx context.Context, tx *gorm.DB, roadmapID uuid.UUID, n int) []*types.Lesson {
	tb.Helper()
	out := make([]*types.Lesson, 0, n)
	for i := 1; i <= n; i++ {
		l := &types.Lesson{
			ID:            uuid.New(),
			RoadmapID:     roadmapID,
			Title:         fmt.Sprintf("Lesson %d", i),
			OrderIndex:    i,
			EstimatedTime: 10,
			IsActive:      true,
		}
		if err := tx.WithContext(ctx).Create(l).Error; err != nil {
			tb.Fatalf("seed lesson: %v", err)
		}
		out = append(out, l)
	}
	if err := tx.WithContext(ctx).Model(&types.Roadmap{}).
		Where("id = ?", roadmapID).
		Update("total_lessons", n).Error; err != nil {
		tb.Fatalf("seed lesson count: %v", err)
	}
	return out
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, roadmapID uuid.UUID) *types.Enrollment {
	tb.Helper()
	e := &types.Enrollment{
		ID:         uuid.New(),
		UserID:     userID,
		RoadmapID:  roadmapID,
		EnrolledAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func SeedLessonProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID, completed bool, score *float64) *types.LessonProgress {
	tb.Helper()
	p := &types.LessonProgress{
		ID:          uuid.New(),
		UserID:      userID,
		LessonID:    lessonID,
		IsCompleted: completed,
		Score:       score,
	}
	if completed {
		now := time.Now().UTC()
		p.CompletedAt = &now
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed lesson progress: %v", err)
	}
	return p
}
