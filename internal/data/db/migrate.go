package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.AllModels()...)
}

// EnsureLearningIndexes adds the partial indexes the progress queries rely on.
// The statements are valid on both Postgres and SQLite.
func EnsureLearningIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{
			name: "idx_lesson_roadmap_active",
			sql: `CREATE INDEX IF NOT EXISTS idx_lesson_roadmap_active
				ON lesson(roadmap_id, order_index)
				WHERE is_active = true;`,
		},
		{
			name: "idx_lesson_progress_completed",
			sql: `CREATE INDEX IF NOT EXISTS idx_lesson_progress_completed
				ON user_lesson_progress(lesson_id, user_id)
				WHERE is_completed = true;`,
		},
		{
			name: "idx_roadmap_active_created",
			sql: `CREATE INDEX IF NOT EXISTS idx_roadmap_active_created
				ON roadmap(created_at)
				WHERE is_active = true;`,
		},
	}
	for _, st := range stmts {
		if err := db.Exec(st.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", st.name, err)
		}
	}
	return nil
}
