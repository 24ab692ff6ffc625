package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/dbctx"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
)

type EnrollmentFilter struct {
	Completed *bool
	Offset    int
	Limit     int
}

type EnrollmentRepo interface {
	Create(dbc dbctx.Context, enrollments []*types.Enrollment) ([]*types.Enrollment, error)
	GetByUserAndRoadmap(dbc dbctx.Context, userID, roadmapID uuid.UUID) (*types.Enrollment, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, filter EnrollmentFilter) ([]*types.Enrollment, int64, error)
	GetByRoadmapID(dbc dbctx.Context, roadmapID uuid.UUID) ([]*types.Enrollment, error)
	CountByRoadmapID(dbc dbctx.Context, roadmapID uuid.UUID) (int64, error)
	UpdateFields(dbc dbctx.Context, enrollmentID uuid.UUID, updates map[string]interface{}) error
	FullDeleteByIDs(dbc dbctx.Context, enrollmentIDs []uuid.UUID) error
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	repoLog := baseLog.With("repo", "EnrollmentRepo")
	return &enrollmentRepo{db: db, log: repoLog}
}

func (r *enrollmentRepo) Create(dbc dbctx.Context, enrollments []*types.Enrollment) ([]*types.Enrollment, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(enrollments) == 0 {
		return []*types.Enrollment{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Omit("Roadmap").Create(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *enrollmentRepo) GetByUserAndRoadmap(dbc dbctx.Context, userID, roadmapID uuid.UUID) (*types.Enrollment, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil || roadmapID == uuid.Nil {
		return nil, nil
	}
	var row types.Enrollment
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND roadmap_id = ?", userID, roadmapID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// ListByUser returns the user's enrollments, most recently enrolled first,
// with their roadmaps preloaded.
func (r *enrollmentRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, filter EnrollmentFilter) ([]*types.Enrollment, int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Model(&types.Enrollment{}).Where("user_id = ?", userID)
	if filter.Completed != nil {
		q = q.Where("is_completed = ?", *filter.Completed)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []*types.Enrollment
	q = q.Preload("Roadmap").Order("enrolled_at DESC").Order("id ASC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *enrollmentRepo) GetByRoadmapID(dbc dbctx.Context, roadmapID uuid.UUID) ([]*types.Enrollment, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Enrollment
	if roadmapID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("roadmap_id = ?", roadmapID).
		Order("enrolled_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) CountByRoadmapID(dbc dbctx.Context, roadmapID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var count int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Enrollment{}).
		Where("roadmap_id = ?", roadmapID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateFields writes the given columns in a single UPDATE. Map values may
// be nil to clear nullable columns.
func (r *enrollmentRepo) UpdateFields(dbc dbctx.Context, enrollmentID uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if enrollmentID == uuid.Nil || len(updates) == 0 {
		return nil
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Enrollment{}).
		Where("id = ?", enrollmentID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *enrollmentRepo) FullDeleteByIDs(dbc dbctx.Context, enrollmentIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(enrollmentIDs) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Where("id IN ?", enrollmentIDs).
		Delete(&types.Enrollment{}).Error
}
