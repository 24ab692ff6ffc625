package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/dbctx"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
)

type LessonProgressRepo interface {
	Upsert(dbc dbctx.Context, row *types.LessonProgress) (*types.LessonProgress, error)
	GetByUserAndLessonIDs(dbc dbctx.Context, userID uuid.UUID, lessonIDs []uuid.UUID) ([]*types.LessonProgress, error)
	GetByUserAndRoadmap(dbc dbctx.Context, userID, roadmapID uuid.UUID) ([]*types.LessonProgress, error)
	CompletedCountsForRoadmap(dbc dbctx.Context, roadmapID uuid.UUID, lessonIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	FullDeleteByUserAndRoadmap(dbc dbctx.Context, userID, roadmapID uuid.UUID) (int64, error)
}

type lessonProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonProgressRepo(db *gorm.DB, baseLog *logger.Logger) LessonProgressRepo {
	repoLog := baseLog.With("repo", "LessonProgressRepo")
	return &lessonProgressRepo{db: db, log: repoLog}
}

// Upsert inserts the row or overwrites the mutable columns of the existing
// (user_id, lesson_id) row, then returns the stored row.
func (r *lessonProgressRepo) Upsert(dbc dbctx.Context, row *types.LessonProgress) (*types.LessonProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil || row.LessonID == uuid.Nil {
		return nil, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.UpdatedAt = time.Now().UTC()
	if err := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"is_completed",
				"score",
				"completed_at",
				"time_spent",
				"last_accessed_at",
				"updated_at",
			}),
		}).
		Create(row).Error; err != nil {
		return nil, err
	}

	rows, err := r.GetByUserAndLessonIDs(dbc, row.UserID, []uuid.UUID{row.LessonID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return rows[0], nil
}

func (r *lessonProgressRepo) GetByUserAndLessonIDs(dbc dbctx.Context, userID uuid.UUID, lessonIDs []uuid.UUID) ([]*types.LessonProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.LessonProgress
	if userID == uuid.Nil || len(lessonIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND lesson_id IN ?", userID, lessonIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetByUserAndRoadmap returns the user's rows for every lesson of the
// roadmap, active or not.
func (r *lessonProgressRepo) GetByUserAndRoadmap(dbc dbctx.Context, userID, roadmapID uuid.UUID) ([]*types.LessonProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.LessonProgress
	if userID == uuid.Nil || roadmapID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Where("lesson_id IN (?)", t.Model(&types.Lesson{}).Select("id").Where("roadmap_id = ?", roadmapID)).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CompletedCountsForRoadmap counts, per lesson, the users enrolled in the
// roadmap who completed it. Lessons nobody completed are absent from the map.
func (r *lessonProgressRepo) CompletedCountsForRoadmap(dbc dbctx.Context, roadmapID uuid.UUID, lessonIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := map[uuid.UUID]int64{}
	if roadmapID == uuid.Nil || len(lessonIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		LessonID uuid.UUID
		Count    int64
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.LessonProgress{}).
		Select("lesson_id, COUNT(*) AS count").
		Where("lesson_id IN ? AND is_completed = ?", lessonIDs, true).
		Where("user_id IN (?)", t.Model(&types.Enrollment{}).Select("user_id").Where("roadmap_id = ?", roadmapID)).
		Group("lesson_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.LessonID] = row.Count
	}
	return out, nil
}

func (r *lessonProgressRepo) FullDeleteByUserAndRoadmap(dbc dbctx.Context, userID, roadmapID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil || roadmapID == uuid.Nil {
		return 0, nil
	}
	res := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Where("lesson_id IN (?)", t.Model(&types.Lesson{}).Select("id").Where("roadmap_id = ?", roadmapID)).
		Delete(&types.LessonProgress{})
	return res.RowsAffected, res.Error
}
