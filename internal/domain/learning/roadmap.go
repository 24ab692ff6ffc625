package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

var Difficulties = []string{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

// Roadmap is the aggregate root of an ordered set of lessons. TotalLessons is
// a denormalised count of its active lessons.
type Roadmap struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string         `gorm:"column:title;not null" json:"title"`
	Slug          string         `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Description   string         `gorm:"column:description;type:text" json:"description,omitempty"`
	Difficulty    string         `gorm:"column:difficulty;not null;size:16;index" json:"difficulty"`
	TotalLessons  int            `gorm:"column:total_lessons;not null" json:"totalLessons"`
	EstimatedTime int            `gorm:"column:estimated_time;not null" json:"estimatedTime"`
	IsActive      bool           `gorm:"column:is_active;not null;index" json:"isActive"`
	CategoryID    *uuid.UUID     `gorm:"type:uuid;column:category_id;index" json:"categoryId,omitempty"`
	Category      *Category      `gorm:"foreignKey:CategoryID;references:ID" json:"category,omitempty"`
	Tags          []*Tag         `gorm:"many2many:roadmap_tag;" json:"tags,omitempty"`
	Lessons       []*Lesson      `gorm:"foreignKey:RoadmapID;references:ID" json:"lessons,omitempty"`
	CreatedBy     *uuid.UUID     `gorm:"type:uuid;column:created_by" json:"createdBy,omitempty"`
	Metadata      datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updatedAt"`
}

func (Roadmap) TableName() string { return "roadmap" }

func (r *Roadmap) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Lesson belongs to one roadmap. Lessons are deactivated, never deleted,
// while progress rows may reference them.
type Lesson struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RoadmapID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_lesson_roadmap_order,unique,priority:1" json:"roadmapId"`
	Title         string         `gorm:"column:title;not null" json:"title"`
	Content       string         `gorm:"column:content;type:text" json:"content,omitempty"`
	OrderIndex    int            `gorm:"column:order_index;not null;index:idx_lesson_roadmap_order,unique,priority:2" json:"orderIndex"`
	EstimatedTime int            `gorm:"column:estimated_time;not null" json:"estimatedTime"`
	IsActive      bool           `gorm:"column:is_active;not null;index" json:"isActive"`
	Metadata      datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"createdAt"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updatedAt"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
