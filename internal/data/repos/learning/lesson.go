package learning

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/dbctx"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
)

type LessonRepo interface {
	Create(dbc dbctx.Context, lessons []*types.Lesson) ([]*types.Lesson, error)
	GetByIDs(dbc dbctx.Context, lessonIDs []uuid.UUID) ([]*types.Lesson, error)
	GetByID(dbc dbctx.Context, lessonID uuid.UUID) (*types.Lesson, error)
	GetByRoadmapID(dbc dbctx.Context, roadmapID uuid.UUID, includeInactive bool) ([]*types.Lesson, error)
	MaxOrderIndex(dbc dbctx.Context, roadmapID uuid.UUID) (int, error)
	UpdateFields(dbc dbctx.Context, lessonID uuid.UUID, updates map[string]interface{}) error
	SetOrder(dbc dbctx.Context, roadmapID uuid.UUID, orderedIDs []uuid.UUID) error
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	repoLog := baseLog.With("repo", "LessonRepo")
	return &lessonRepo{db: db, log: repoLog}
}

func (r *lessonRepo) Create(dbc dbctx.Context, lessons []*types.Lesson) ([]*types.Lesson, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(lessons) == 0 {
		return []*types.Lesson{}, nil
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepo) GetByIDs(dbc dbctx.Context, lessonIDs []uuid.UUID) ([]*types.Lesson, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Lesson
	if len(lessonIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", lessonIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *lessonRepo) GetByID(dbc dbctx.Context, lessonID uuid.UUID) (*types.Lesson, error) {
	if lessonID == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{lessonID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// GetByRoadmapID returns the roadmap's lessons ordered by order_index.
func (r *lessonRepo) GetByRoadmapID(dbc dbctx.Context, roadmapID uuid.UUID, includeInactive bool) ([]*types.Lesson, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Lesson
	if roadmapID == uuid.Nil {
		return results, nil
	}

	q := transaction.WithContext(dbc.Ctx).Where("roadmap_id = ?", roadmapID)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("order_index ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *lessonRepo) MaxOrderIndex(dbc dbctx.Context, roadmapID uuid.UUID) (int, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var max *int
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Lesson{}).
		Where("roadmap_id = ?", roadmapID).
		Select("MAX(order_index)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *lessonRepo) UpdateFields(dbc dbctx.Context, lessonID uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if lessonID == uuid.Nil || len(updates) == 0 {
		return nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Lesson{}).
		Where("id = ?", lessonID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetOrder assigns order_index 1..n following orderedIDs. Indexes are first
// moved to negative values so the (roadmap_id, order_index) unique index
// holds after every statement. Call it inside a transaction.
func (r *lessonRepo) SetOrder(dbc dbctx.Context, roadmapID uuid.UUID, orderedIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	for i, id := range orderedIDs {
		if err := r.setIndex(transaction, dbc, roadmapID, id, -(i + 1)); err != nil {
			return err
		}
	}
	for i, id := range orderedIDs {
		if err := r.setIndex(transaction, dbc, roadmapID, id, i+1); err != nil {
			return err
		}
	}
	return nil
}

func (r *lessonRepo) setIndex(transaction *gorm.DB, dbc dbctx.Context, roadmapID, lessonID uuid.UUID, idx int) error {
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Lesson{}).
		Where("id = ? AND roadmap_id = ?", lessonID, roadmapID).
		Update("order_index", idx)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("lesson %s not in roadmap %s: %w", lessonID, roadmapID, gorm.ErrRecordNotFound)
	}
	return nil
}
