package repos

import (
	"gorm.io/gorm"

	"github.com/jCool10/LearnSmart-sub001/internal/data/repos/auth"
	"github.com/jCool10/LearnSmart-sub001/internal/data/repos/learning"
	"github.com/jCool10/LearnSmart-sub001/internal/data/repos/user"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo

type CategoryRepo = learning.CategoryRepo
type TagRepo = learning.TagRepo
type RoadmapRepo = learning.RoadmapRepo
type LessonRepo = learning.LessonRepo
type EnrollmentRepo = learning.EnrollmentRepo
type LessonProgressRepo = learning.LessonProgressRepo

type RoadmapFilter = learning.RoadmapFilter
type EnrollmentFilter = learning.EnrollmentFilter

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, baseLog)
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return learning.NewCategoryRepo(db, baseLog)
}
func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	return learning.NewTagRepo(db, baseLog)
}
func NewRoadmapRepo(db *gorm.DB, baseLog *logger.Logger) RoadmapRepo {
	return learning.NewRoadmapRepo(db, baseLog)
}
func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return learning.NewLessonRepo(db, baseLog)
}
func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return learning.NewEnrollmentRepo(db, baseLog)
}
func NewLessonProgressRepo(db *gorm.DB, baseLog *logger.Logger) LessonProgressRepo {
	return learning.NewLessonProgressRepo(db, baseLog)
}
