package learning

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/dbctx"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
)

// RoadmapFilter narrows List. Zero values mean "no constraint".
type RoadmapFilter struct {
	Difficulty string
	CategoryID *uuid.UUID
	TagSlug    string
	Search     string
	IsActive   *bool
	SortBy     string
	SortDesc   bool
	Offset     int
	Limit      int
}

var roadmapSortColumns = map[string]string{
	"createdAt":    "created_at",
	"title":        "title",
	"difficulty":   "difficulty",
	"totalLessons": "total_lessons",
}

type RoadmapRepo interface {
	Create(dbc dbctx.Context, roadmaps []*types.Roadmap) ([]*types.Roadmap, error)
	GetByIDs(dbc dbctx.Context, roadmapIDs []uuid.UUID) ([]*types.Roadmap, error)
	GetByID(dbc dbctx.Context, roadmapID uuid.UUID) (*types.Roadmap, error)
	GetBySlugs(dbc dbctx.Context, slugs []string) ([]*types.Roadmap, error)
	GetDetail(dbc dbctx.Context, roadmapID uuid.UUID) (*types.Roadmap, error)
	List(dbc dbctx.Context, filter RoadmapFilter) ([]*types.Roadmap, int64, error)
	ListIDs(dbc dbctx.Context, activeOnly bool) ([]uuid.UUID, error)
	UpdateFields(dbc dbctx.Context, roadmapID uuid.UUID, updates map[string]interface{}) error
	ReplaceTags(dbc dbctx.Context, roadmap *types.Roadmap, tags []*types.Tag) error
	RefreshTotalLessons(dbc dbctx.Context, roadmapID uuid.UUID) (int, error)
}

type roadmapRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRoadmapRepo(db *gorm.DB, baseLog *logger.Logger) RoadmapRepo {
	repoLog := baseLog.With("repo", "RoadmapRepo")
	return &roadmapRepo{db: db, log: repoLog}
}

func (r *roadmapRepo) Create(dbc dbctx.Context, roadmaps []*types.Roadmap) ([]*types.Roadmap, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(roadmaps) == 0 {
		return []*types.Roadmap{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Omit("Tags", "Lessons", "Category").Create(&roadmaps).Error; err != nil {
		return nil, err
	}
	return roadmaps, nil
}

func (r *roadmapRepo) GetByIDs(dbc dbctx.Context, roadmapIDs []uuid.UUID) ([]*types.Roadmap, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Roadmap
	if len(roadmapIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", roadmapIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *roadmapRepo) GetByID(dbc dbctx.Context, roadmapID uuid.UUID) (*types.Roadmap, error) {
	if roadmapID == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{roadmapID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *roadmapRepo) GetBySlugs(dbc dbctx.Context, slugs []string) ([]*types.Roadmap, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Roadmap
	if len(slugs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("slug IN ?", slugs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetDetail loads the roadmap with its category, tags and active lessons in order.
func (r *roadmapRepo) GetDetail(dbc dbctx.Context, roadmapID uuid.UUID) (*types.Roadmap, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if roadmapID == uuid.Nil {
		return nil, nil
	}
	var row types.Roadmap
	err := t.WithContext(dbc.Ctx).
		Preload("Category").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("order_index ASC")
		}).
		Where("id = ?", roadmapID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *roadmapRepo) List(dbc dbctx.Context, filter RoadmapFilter) ([]*types.Roadmap, int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}

	q := t.WithContext(dbc.Ctx).Model(&types.Roadmap{})
	if filter.Difficulty != "" {
		q = q.Where("difficulty = ?", filter.Difficulty)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.TagSlug != "" {
		q = q.Where(
			"id IN (SELECT rt.roadmap_id FROM roadmap_tag rt JOIN tag ON tag.id = rt.tag_id WHERE tag.slug = ?)",
			filter.TagSlug,
		)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	col, ok := roadmapSortColumns[filter.SortBy]
	if !ok {
		col = "created_at"
		if filter.SortBy == "" {
			filter.SortDesc = true
		}
	}
	dir := " ASC"
	if filter.SortDesc {
		dir = " DESC"
	}

	var out []*types.Roadmap
	q = q.Preload("Category").Preload("Tags").Order(col + dir).Order("id ASC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *roadmapRepo) ListIDs(dbc dbctx.Context, activeOnly bool) ([]uuid.UUID, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(dbc.Ctx).Model(&types.Roadmap{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var ids []uuid.UUID
	if err := q.Order("created_at ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *roadmapRepo) UpdateFields(dbc dbctx.Context, roadmapID uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if roadmapID == uuid.Nil || len(updates) == 0 {
		return nil
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Roadmap{}).
		Where("id = ?", roadmapID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *roadmapRepo) ReplaceTags(dbc dbctx.Context, roadmap *types.Roadmap, tags []*types.Tag) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if roadmap == nil || roadmap.ID == uuid.Nil {
		return nil
	}
	assoc := t.WithContext(dbc.Ctx).Model(roadmap).Association("Tags")
	if len(tags) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(tags)
}

// RefreshTotalLessons recounts the roadmap's active lessons and stores the result.
func (r *roadmapRepo) RefreshTotalLessons(dbc dbctx.Context, roadmapID uuid.UUID) (int, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var count int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Lesson{}).
		Where("roadmap_id = ? AND is_active = ?", roadmapID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Roadmap{}).
		Where("id = ?", roadmapID).
		Update("total_lessons", count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}
