package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jCool10/LearnSmart-sub001/internal/data/repos"
	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/dbctx"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/slug"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/validate"
)

type CategoryInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type TagInput struct {
	Name *string `json:"name"`
}

var categoryCreateSchema = validate.Schema{
	"name":        {Required: true, Min: validate.Bound(2), Max: validate.Bound(100)},
	"description": {Max: validate.Bound(1000)},
}

var categoryUpdateSchema = validate.Schema{
	"name":        {Min: validate.Bound(2), Max: validate.Bound(100)},
	"description": {Max: validate.Bound(1000)},
}

var tagSchema = validate.Schema{
	"name": {Required: true, Min: validate.Bound(1), Max: validate.Bound(50)},
}

type CategoryService interface {
	Create(ctx context.Context, in CategoryInput) (*types.Category, error)
	Get(ctx context.Context, categoryID uuid.UUID) (*types.Category, error)
	List(ctx context.Context) ([]*types.Category, error)
	Update(ctx context.Context, categoryID uuid.UUID, in CategoryInput) (*types.Category, error)
	Delete(ctx context.Context, categoryID uuid.UUID) error
}

type categoryService struct {
	db           *gorm.DB
	log          *logger.Logger
	categoryRepo repos.CategoryRepo
}

func NewCategoryService(db *gorm.DB, log *logger.Logger, categoryRepo repos.CategoryRepo) CategoryService {
	return &categoryService{
		db:           db,
		log:          log.With("service", "CategoryService"),
		categoryRepo: categoryRepo,
	}
}

func (cs *categoryService) Create(ctx context.Context, in CategoryInput) (*types.Category, error) {
	if err := validate.Check(categoryCreateSchema, validate.Fields{
		"name":        trimmed(in.Name),
		"description": in.Description,
	}); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(*in.Name)
	category := &types.Category{Name: name, Slug: slug.Make(name, slug.DefaultMaxLen)}
	if in.Description != nil {
		category.Description = *in.Description
	}
	if _, err := cs.categoryRepo.Create(dbctx.New(ctx), []*types.Category{category}); err != nil {
		return nil, apierr.FromDB(err, "category")
	}
	return category, nil
}

func (cs *categoryService) Get(ctx context.Context, categoryID uuid.UUID) (*types.Category, error) {
	c, err := cs.categoryRepo.GetByID(dbctx.New(ctx), categoryID)
	if err != nil {
		return nil, apierr.FromDB(err, "category")
	}
	if c == nil {
		return nil, apierr.NotFound("category")
	}
	return c, nil
}

func (cs *categoryService) List(ctx context.Context) ([]*types.Category, error) {
	out, err := cs.categoryRepo.List(dbctx.New(ctx))
	if err != nil {
		return nil, apierr.FromDB(err, "category")
	}
	return out, nil
}

func (cs *categoryService) Update(ctx context.Context, categoryID uuid.UUID, in CategoryInput) (*types.Category, error) {
	if err := validate.Check(categoryUpdateSchema, validate.Fields{
		"name":        trimmed(in.Name),
		"description": in.Description,
	}); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		updates["name"] = name
		updates["slug"] = slug.Make(name, slug.DefaultMaxLen)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if err := cs.categoryRepo.UpdateFields(dbctx.New(ctx), categoryID, updates); err != nil {
		return nil, apierr.FromDB(err, "category")
	}
	return cs.Get(ctx, categoryID)
}

// Delete removes the category; its roadmaps become uncategorised.
func (cs *categoryService) Delete(ctx context.Context, categoryID uuid.UUID) error {
	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		c, err := cs.categoryRepo.GetByID(dbc, categoryID)
		if err != nil {
			return apierr.FromDB(err, "category")
		}
		if c == nil {
			return apierr.NotFound("category")
		}
		if err := cs.categoryRepo.FullDeleteByIDs(dbc, []uuid.UUID{categoryID}); err != nil {
			return apierr.FromDB(err, "category")
		}
		cs.log.Info("category deleted", "category_id", categoryID)
		return nil
	})
}

type TagService interface {
	Create(ctx context.Context, in TagInput) (*types.Tag, error)
	List(ctx context.Context) ([]*types.Tag, error)
	Delete(ctx context.Context, tagID uuid.UUID) error
}

type tagService struct {
	db      *gorm.DB
	log     *logger.Logger
	tagRepo repos.TagRepo
}

func NewTagService(db *gorm.DB, log *logger.Logger, tagRepo repos.TagRepo) TagService {
	return &tagService{
		db:      db,
		log:     log.With("service", "TagService"),
		tagRepo: tagRepo,
	}
}

func (ts *tagService) Create(ctx context.Context, in TagInput) (*types.Tag, error) {
	if err := validate.Check(tagSchema, validate.Fields{"name": trimmed(in.Name)}); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(*in.Name)
	tag := &types.Tag{Name: name, Slug: slug.Make(name, slug.DefaultMaxLen)}
	if _, err := ts.tagRepo.Create(dbctx.New(ctx), []*types.Tag{tag}); err != nil {
		return nil, apierr.FromDB(err, "tag")
	}
	return tag, nil
}

func (ts *tagService) List(ctx context.Context) ([]*types.Tag, error) {
	out, err := ts.tagRepo.List(dbctx.New(ctx))
	if err != nil {
		return nil, apierr.FromDB(err, "tag")
	}
	return out, nil
}

func (ts *tagService) Delete(ctx context.Context, tagID uuid.UUID) error {
	return ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		found, err := ts.tagRepo.GetByIDs(dbc, []uuid.UUID{tagID})
		if err != nil {
			return apierr.FromDB(err, "tag")
		}
		if len(found) == 0 {
			return apierr.NotFound("tag")
		}
		if err := ts.tagRepo.FullDeleteByIDs(dbc, []uuid.UUID{tagID}); err != nil {
			return apierr.FromDB(err, "tag")
		}
		return nil
	})
}
