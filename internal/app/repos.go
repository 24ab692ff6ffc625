package app

import (
	"gorm.io/gorm"

	"github.com/jCool10/LearnSmart-sub001/internal/data/repos"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
)

type Repos struct {
	User           repos.UserRepo
	UserToken      repos.UserTokenRepo
	Category       repos.CategoryRepo
	Tag            repos.TagRepo
	Roadmap        repos.RoadmapRepo
	Lesson         repos.LessonRepo
	Enrollment     repos.EnrollmentRepo
	LessonProgress repos.LessonProgressRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:           repos.NewUserRepo(db, log),
		UserToken:      repos.NewUserTokenRepo(db, log),
		Category:       repos.NewCategoryRepo(db, log),
		Tag:            repos.NewTagRepo(db, log),
		Roadmap:        repos.NewRoadmapRepo(db, log),
		Lesson:         repos.NewLessonRepo(db, log),
		Enrollment:     repos.NewEnrollmentRepo(db, log),
		LessonProgress: repos.NewLessonProgressRepo(db, log),
	}
}
