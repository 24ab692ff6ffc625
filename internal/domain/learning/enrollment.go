package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Enrollment is a user's participation in a roadmap. Progress, AverageScore,
// IsCompleted and CompletedAt are derived from the user's LessonProgress rows.
type Enrollment struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index:idx_enrollment_user_roadmap,unique,priority:1" json:"userId"`
	RoadmapID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_enrollment_user_roadmap,unique,priority:2;index" json:"roadmapId"`
	Roadmap        *Roadmap   `gorm:"foreignKey:RoadmapID;references:ID" json:"roadmap,omitempty"`
	Progress       int        `gorm:"column:progress;not null" json:"progress"`
	AverageScore   *float64   `gorm:"column:average_score" json:"averageScore"`
	IsCompleted    bool       `gorm:"column:is_completed;not null" json:"isCompleted"`
	CompletedAt    *time.Time `gorm:"column:completed_at" json:"completedAt"`
	LastAccessedAt *time.Time `gorm:"column:last_accessed_at" json:"lastAccessedAt,omitempty"`
	EnrolledAt     time.Time  `gorm:"column:enrolled_at;not null" json:"enrolledAt"`
	CreatedAt      time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updatedAt"`
}

func (Enrollment) TableName() string { return "user_roadmap_enrollment" }

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now().UTC()
	}
	return nil
}

// LessonProgress is one user's state for one lesson. Rows are created lazily
// on the first update and updated in place afterwards.
type LessonProgress struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index:idx_lesson_progress_user_lesson,unique,priority:1" json:"userId"`
	LessonID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_lesson_progress_user_lesson,unique,priority:2;index" json:"lessonId"`
	Score          *float64   `gorm:"column:score" json:"score"`
	IsCompleted    bool       `gorm:"column:is_completed;not null" json:"isCompleted"`
	CompletedAt    *time.Time `gorm:"column:completed_at" json:"completedAt"`
	TimeSpent      int        `gorm:"column:time_spent;not null" json:"timeSpent"`
	LastAccessedAt *time.Time `gorm:"column:last_accessed_at" json:"lastAccessedAt,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updatedAt"`
}

func (LessonProgress) TableName() string { return "user_lesson_progress" }

func (p *LessonProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
