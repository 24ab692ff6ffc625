package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/dbctx"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
)

type TagRepo interface {
	Create(dbc dbctx.Context, tags []*types.Tag) ([]*types.Tag, error)
	GetByIDs(dbc dbctx.Context, tagIDs []uuid.UUID) ([]*types.Tag, error)
	GetBySlugs(dbc dbctx.Context, slugs []string) ([]*types.Tag, error)
	List(dbc dbctx.Context) ([]*types.Tag, error)
	FullDeleteByIDs(dbc dbctx.Context, tagIDs []uuid.UUID) error
}

type tagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	repoLog := baseLog.With("repo", "TagRepo")
	return &tagRepo{db: db, log: repoLog}
}

func (r *tagRepo) Create(dbc dbctx.Context, tags []*types.Tag) ([]*types.Tag, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(tags) == 0 {
		return []*types.Tag{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepo) GetByIDs(dbc dbctx.Context, tagIDs []uuid.UUID) ([]*types.Tag, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Tag
	if len(tagIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", tagIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tagRepo) GetBySlugs(dbc dbctx.Context, slugs []string) ([]*types.Tag, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Tag
	if len(slugs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("slug IN ?", slugs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tagRepo) List(dbc dbctx.Context) ([]*types.Tag, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Tag
	if err := t.WithContext(dbc.Ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FullDeleteByIDs removes the tags and their roadmap associations.
func (r *tagRepo) FullDeleteByIDs(dbc dbctx.Context, tagIDs []uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(tagIDs) == 0 {
		return nil
	}
	if err := t.WithContext(dbc.Ctx).
		Exec("DELETE FROM roadmap_tag WHERE tag_id IN ?", tagIDs).Error; err != nil {
		return err
	}
	return t.WithContext(dbc.Ctx).
		Where("id IN ?", tagIDs).
		Delete(&types.Tag{}).Error
}
