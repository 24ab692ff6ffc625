package domain

import (
	"github.com/jCool10/LearnSmart-sub001/internal/domain/auth"
	"github.com/jCool10/LearnSmart-sub001/internal/domain/learning"
	"github.com/jCool10/LearnSmart-sub001/internal/domain/user"
)

const (
	RoleUser  = user.RoleUser
	RoleAdmin = user.RoleAdmin

	DifficultyBeginner     = learning.DifficultyBeginner
	DifficultyIntermediate = learning.DifficultyIntermediate
	DifficultyAdvanced     = learning.DifficultyAdvanced
)

var Difficulties = learning.Difficulties

type User = user.User
type UserToken = auth.UserToken

type Category = learning.Category
type Tag = learning.Tag
type Roadmap = learning.Roadmap
type Lesson = learning.Lesson
type Enrollment = learning.Enrollment
type LessonProgress = learning.LessonProgress

// AllModels lists every table the service owns, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&UserToken{},
		&Category{},
		&Tag{},
		&Roadmap{},
		&Lesson{},
		&Enrollment{},
		&LessonProgress{},
	}
}
