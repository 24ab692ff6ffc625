package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/dbctx"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
)

type CategoryRepo interface {
	Create(dbc dbctx.Context, categories []*types.Category) ([]*types.Category, error)
	GetByIDs(dbc dbctx.Context, categoryIDs []uuid.UUID) ([]*types.Category, error)
	GetByID(dbc dbctx.Context, categoryID uuid.UUID) (*types.Category, error)
	GetBySlugs(dbc dbctx.Context, slugs []string) ([]*types.Category, error)
	List(dbc dbctx.Context) ([]*types.Category, error)
	UpdateFields(dbc dbctx.Context, categoryID uuid.UUID, updates map[string]interface{}) error
	FullDeleteByIDs(dbc dbctx.Context, categoryIDs []uuid.UUID) error
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	repoLog := baseLog.With("repo", "CategoryRepo")
	return &categoryRepo{db: db, log: repoLog}
}

func (r *categoryRepo) Create(dbc dbctx.Context, categories []*types.Category) ([]*types.Category, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(categories) == 0 {
		return []*types.Category{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepo) GetByIDs(dbc dbctx.Context, categoryIDs []uuid.UUID) ([]*types.Category, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Category
	if len(categoryIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", categoryIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *categoryRepo) GetByID(dbc dbctx.Context, categoryID uuid.UUID) (*types.Category, error) {
	if categoryID == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{categoryID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *categoryRepo) GetBySlugs(dbc dbctx.Context, slugs []string) ([]*types.Category, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Category
	if len(slugs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("slug IN ?", slugs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *categoryRepo) List(dbc dbctx.Context) ([]*types.Category, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Category
	if err := t.WithContext(dbc.Ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *categoryRepo) UpdateFields(dbc dbctx.Context, categoryID uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if categoryID == uuid.Nil || len(updates) == 0 {
		return nil
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.Category{}).
		Where("id = ?", categoryID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FullDeleteByIDs detaches the categories from their roadmaps and deletes them.
func (r *categoryRepo) FullDeleteByIDs(dbc dbctx.Context, categoryIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(categoryIDs) == 0 {
		return nil
	}
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Roadmap{}).
		Where("category_id IN ?", categoryIDs).
		Update("category_id", nil).Error; err != nil {
		return err
	}
	return t.WithContext(dbc.Ctx).
		Where("id IN ?", categoryIDs).
		Delete(&types.Category{}).Error
}
