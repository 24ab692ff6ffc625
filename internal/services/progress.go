package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jCool10/LearnSmart-sub001/internal/data/repos"
	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	"github.com/jCool10/LearnSmart-sub001/internal/observability"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/dbctx"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/validate"
)

const (
	TriggerLessonProgress = "lesson_progress"
	TriggerBulkProgress   = "bulk_progress"
	TriggerManual         = "manual"
	TriggerLessonActive   = "lesson_active"
	TriggerOps            = "ops"
)

// LessonProgressInput is a partial update of one lesson progress row. Nil
// fields keep their stored value (or the zero value on first write).
type LessonProgressInput struct {
	IsCompleted *bool    `json:"isCompleted"`
	Score       *float64 `json:"score"`
	TimeSpent   *int     `json:"timeSpent"`
}

type BulkLessonProgressItem struct {
	LessonID uuid.UUID `json:"lessonId"`
	LessonProgressInput
}

var lessonProgressSchema = validate.Schema{
	"score":     {Min: validate.Bound(0), Max: validate.Bound(100)},
	"timeSpent": {Min: validate.Bound(0)},
}

var manualProgressSchema = validate.Schema{
	"progress": {Required: true, Min: validate.Bound(0), Max: validate.Bound(100)},
}

func (in LessonProgressInput) validate() error {
	return validate.Check(lessonProgressSchema, validate.Fields{
		"score":     in.Score,
		"timeSpent": in.TimeSpent,
	})
}

type ProgressService interface {
	Recalculate(ctx context.Context, userID, roadmapID uuid.UUID) (*types.Enrollment, error)
	RecalculateAll(ctx context.Context, roadmapID uuid.UUID) (int, error)
	UpdateLessonProgress(ctx context.Context, userID, lessonID uuid.UUID, in LessonProgressInput) (*types.LessonProgress, error)
	CompleteLesson(ctx context.Context, userID, lessonID uuid.UUID, score *float64) (*types.LessonProgress, error)
	UncompleteLesson(ctx context.Context, userID, lessonID uuid.UUID) (*types.LessonProgress, error)
	BulkUpdateLessonProgress(ctx context.Context, userID, roadmapID uuid.UUID, items []BulkLessonProgressItem) ([]*types.LessonProgress, *types.Enrollment, error)
	ResetProgress(ctx context.Context, userID, roadmapID uuid.UUID) (*types.Enrollment, error)
	SetManualProgress(ctx context.Context, userID, roadmapID uuid.UUID, progress *int) (*types.Enrollment, error)
	ListRoadmapLessonProgress(ctx context.Context, userID, roadmapID uuid.UUID) ([]*types.LessonProgress, error)
}

type progressService struct {
	db             *gorm.DB
	log            *logger.Logger
	roadmapRepo    repos.RoadmapRepo
	lessonRepo     repos.LessonRepo
	enrollmentRepo repos.EnrollmentRepo
	progressRepo   repos.LessonProgressRepo
	stats          StatsService
	metrics        *observability.Metrics
	now            func() time.Time
}

func NewProgressService(
	db *gorm.DB,
	log *logger.Logger,
	roadmapRepo repos.RoadmapRepo,
	lessonRepo repos.LessonRepo,
	enrollmentRepo repos.EnrollmentRepo,
	progressRepo repos.LessonProgressRepo,
	stats StatsService,
	metrics *observability.Metrics,
) ProgressService {
	serviceLog := log.With("service", "ProgressService")
	return &progressService{
		db:             db,
		log:            serviceLog,
		roadmapRepo:    roadmapRepo,
		lessonRepo:     lessonRepo,
		enrollmentRepo: enrollmentRepo,
		progressRepo:   progressRepo,
		stats:          stats,
		metrics:        metrics,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// progressSummary is the derived state of one enrollment.
type progressSummary struct {
	Total        int
	Completed    int
	Progress     int
	AverageScore *float64
}

// percent rounds 100*part/whole half up using integer arithmetic.
func percent(part, whole int64) int {
	if whole <= 0 {
		return 0
	}
	return int((200*part + whole) / (2 * whole))
}

// summarize derives progress from the active lessons and the user's rows.
// Rows for lessons outside activeIDs are ignored.
func summarize(activeIDs []uuid.UUID, rows []*types.LessonProgress) progressSummary {
	active := make(map[uuid.UUID]struct{}, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = struct{}{}
	}
	out := progressSummary{Total: len(active)}
	var scoreSum float64
	var scored int
	seen := map[uuid.UUID]struct{}{}
	for _, row := range rows {
		if row == nil || !row.IsCompleted {
			continue
		}
		if _, ok := active[row.LessonID]; !ok {
			continue
		}
		if _, dup := seen[row.LessonID]; dup {
			continue
		}
		seen[row.LessonID] = struct{}{}
		out.Completed++
		if row.Score != nil {
			scoreSum += *row.Score
			scored++
		}
	}
	out.Progress = percent(int64(out.Completed), int64(out.Total))
	if scored > 0 {
		avg := scoreSum / float64(scored)
		out.AverageScore = &avg
	}
	return out
}

// completionTransition returns the completion flag and timestamp for a new
// progress value. completedAt is stamped only on the false to true edge and
// cleared whenever progress drops below 100.
func completionTransition(wasCompleted bool, prevCompletedAt *time.Time, progress int, now time.Time) (bool, *time.Time) {
	if progress < 100 {
		return false, nil
	}
	if wasCompleted && prevCompletedAt != nil {
		return true, prevCompletedAt
	}
	stamp := now
	return true, &stamp
}

func (ps *progressService) Recalculate(ctx context.Context, userID, roadmapID uuid.UUID) (*types.Enrollment, error) {
	return ps.recalculate(ctx, userID, roadmapID, TriggerManual)
}

func (ps *progressService) recalculate(ctx context.Context, userID, roadmapID uuid.UUID, trigger string) (*types.Enrollment, error) {
	start := time.Now()
	var out *types.Enrollment
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := ps.recalculateTx(dbctx.Context{Ctx: ctx, Tx: tx}, userID, roadmapID)
		if err != nil {
			return err
		}
		out = e
		return nil
	})
	ps.metrics.ObserveRecalculation(trigger, err, time.Since(start))
	if err != nil {
		if apierr.StatusOf(err) >= 500 {
			ps.log.Error("progress recalculation failed", "user_id", userID, "roadmap_id", roadmapID, "trigger", trigger, "error", err)
		}
		return nil, err
	}
	ps.invalidateStats(ctx, roadmapID)
	return out, nil
}

// recalculateTx always derives from a fresh read of the lesson and progress
// rows and writes the enrollment with a single UPDATE.
func (ps *progressService) recalculateTx(dbc dbctx.Context, userID, roadmapID uuid.UUID) (*types.Enrollment, error) {
	enrollment, err := ps.enrollmentRepo.GetByUserAndRoadmap(dbc, userID, roadmapID)
	if err != nil {
		return nil, apierr.FromDB(err, "enrollment")
	}
	if enrollment == nil {
		return nil, apierr.NotFound("enrollment")
	}

	lessons, err := ps.lessonRepo.GetByRoadmapID(dbc, roadmapID, false)
	if err != nil {
		return nil, apierr.FromDB(err, "lesson")
	}
	activeIDs := make([]uuid.UUID, 0, len(lessons))
	for _, l := range lessons {
		activeIDs = append(activeIDs, l.ID)
	}

	rows, err := ps.progressRepo.GetByUserAndLessonIDs(dbc, userID, activeIDs)
	if err != nil {
		return nil, apierr.FromDB(err, "lesson progress")
	}

	sum := summarize(activeIDs, rows)
	isCompleted, completedAt := completionTransition(enrollment.IsCompleted, enrollment.CompletedAt, sum.Progress, ps.now())

	updates := map[string]interface{}{
		"progress":      sum.Progress,
		"average_score": sum.AverageScore,
		"is_completed":  isCompleted,
		"completed_at":  completedAt,
	}
	if err := ps.enrollmentRepo.UpdateFields(dbc, enrollment.ID, updates); err != nil {
		return nil, apierr.FromDB(err, "enrollment")
	}

	enrollment.Progress = sum.Progress
	enrollment.AverageScore = sum.AverageScore
	enrollment.IsCompleted = isCompleted
	enrollment.CompletedAt = completedAt
	return enrollment, nil
}

// RecalculateAll recalculates every enrollment of the roadmap, each in its own
// transaction, and returns how many were updated.
func (ps *progressService) RecalculateAll(ctx context.Context, roadmapID uuid.UUID) (int, error) {
	dbc := dbctx.New(ctx)
	roadmap, err := ps.roadmapRepo.GetByID(dbc, roadmapID)
	if err != nil {
		return 0, apierr.FromDB(err, "roadmap")
	}
	if roadmap == nil {
		return 0, apierr.NotFound("roadmap")
	}
	enrollments, err := ps.enrollmentRepo.GetByRoadmapID(dbc, roadmapID)
	if err != nil {
		return 0, apierr.FromDB(err, "enrollment")
	}
	n := 0
	for _, e := range enrollments {
		if _, err := ps.recalculate(ctx, e.UserID, roadmapID, TriggerOps); err != nil {
			return n, fmt.Errorf("recalculate enrollment %s: %w", e.ID, err)
		}
		n++
	}
	ps.log.Info("recalculated roadmap enrollments", "roadmap_id", roadmapID, "count", n)
	return n, nil
}

// lessonForUser loads an active lesson and checks the user is enrolled in its
// roadmap. Inactive lessons never count toward progress, so they accept no writes.
func (ps *progressService) lessonForUser(dbc dbctx.Context, userID, lessonID uuid.UUID) (*types.Lesson, error) {
	lesson, err := ps.lessonRepo.GetByID(dbc, lessonID)
	if err != nil {
		return nil, apierr.FromDB(err, "lesson")
	}
	if lesson == nil || !lesson.IsActive {
		return nil, apierr.NotFound("lesson")
	}
	enrollment, err := ps.enrollmentRepo.GetByUserAndRoadmap(dbc, userID, lesson.RoadmapID)
	if err != nil {
		return nil, apierr.FromDB(err, "enrollment")
	}
	if enrollment == nil {
		return nil, apierr.NotFound("enrollment")
	}
	return lesson, nil
}

// mergeProgress applies in to the existing row (nil for a new row).
func mergeProgress(existing *types.LessonProgress, userID, lessonID uuid.UUID, in LessonProgressInput, now time.Time) *types.LessonProgress {
	row := &types.LessonProgress{UserID: userID, LessonID: lessonID}
	if existing != nil {
		row.ID = existing.ID
		row.IsCompleted = existing.IsCompleted
		row.Score = existing.Score
		row.CompletedAt = existing.CompletedAt
		row.TimeSpent = existing.TimeSpent
	}
	wasCompleted := row.IsCompleted
	if in.IsCompleted != nil {
		row.IsCompleted = *in.IsCompleted
	}
	if in.Score != nil {
		s := *in.Score
		row.Score = &s
	}
	if in.TimeSpent != nil {
		row.TimeSpent = *in.TimeSpent
	}
	switch {
	case !row.IsCompleted:
		row.CompletedAt = nil
	case !wasCompleted || row.CompletedAt == nil:
		stamp := now
		row.CompletedAt = &stamp
	}
	accessed := now
	row.LastAccessedAt = &accessed
	return row
}

func (ps *progressService) upsertProgress(dbc dbctx.Context, userID, lessonID uuid.UUID, in LessonProgressInput) (*types.LessonProgress, error) {
	existing, err := ps.progressRepo.GetByUserAndLessonIDs(dbc, userID, []uuid.UUID{lessonID})
	if err != nil {
		return nil, apierr.FromDB(err, "lesson progress")
	}
	var prev *types.LessonProgress
	if len(existing) > 0 {
		prev = existing[0]
	}
	row, err := ps.progressRepo.Upsert(dbc, mergeProgress(prev, userID, lessonID, in, ps.now()))
	if err != nil {
		return nil, apierr.FromDB(err, "lesson progress")
	}
	return row, nil
}

func (ps *progressService) UpdateLessonProgress(ctx context.Context, userID, lessonID uuid.UUID, in LessonProgressInput) (*types.LessonProgress, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var (
		row       *types.LessonProgress
		roadmapID uuid.UUID
	)
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		lesson, err := ps.lessonForUser(dbc, userID, lessonID)
		if err != nil {
			return err
		}
		roadmapID = lesson.RoadmapID
		row, err = ps.upsertProgress(dbc, userID, lessonID, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	ps.metrics.IncLearningEvent("lesson_progress")

	// The row stays written when this fails; recalculate-progress recovers.
	if _, err := ps.recalculate(ctx, userID, roadmapID, TriggerLessonProgress); err != nil {
		return row, err
	}
	return row, nil
}

func (ps *progressService) CompleteLesson(ctx context.Context, userID, lessonID uuid.UUID, score *float64) (*types.LessonProgress, error) {
	done := true
	return ps.UpdateLessonProgress(ctx, userID, lessonID, LessonProgressInput{IsCompleted: &done, Score: score})
}

func (ps *progressService) UncompleteLesson(ctx context.Context, userID, lessonID uuid.UUID) (*types.LessonProgress, error) {
	done := false
	return ps.UpdateLessonProgress(ctx, userID, lessonID, LessonProgressInput{IsCompleted: &done})
}

// BulkUpdateLessonProgress validates every item before writing anything, then
// applies all upserts in one transaction followed by one recalculation.
func (ps *progressService) BulkUpdateLessonProgress(ctx context.Context, userID, roadmapID uuid.UUID, items []BulkLessonProgressItem) ([]*types.LessonProgress, *types.Enrollment, error) {
	if len(items) == 0 {
		return nil, nil, apierr.Validation(apierr.FieldError{Field: "items", Message: "is required"})
	}
	var fieldErrs []apierr.FieldError
	seen := map[uuid.UUID]struct{}{}
	for i, item := range items {
		prefix := fmt.Sprintf("items[%d].", i)
		if item.LessonID == uuid.Nil {
			fieldErrs = append(fieldErrs, apierr.FieldError{Field: prefix + "lessonId", Message: "is required"})
			continue
		}
		if _, dup := seen[item.LessonID]; dup {
			fieldErrs = append(fieldErrs, apierr.FieldError{Field: prefix + "lessonId", Message: "is duplicated"})
		}
		seen[item.LessonID] = struct{}{}
		for _, fe := range validate.Evaluate(lessonProgressSchema, validate.Fields{
			"score":     item.Score,
			"timeSpent": item.TimeSpent,
		}) {
			fieldErrs = append(fieldErrs, apierr.FieldError{Field: prefix + fe.Field, Message: fe.Message})
		}
	}
	if len(fieldErrs) > 0 {
		return nil, nil, apierr.Validation(fieldErrs...)
	}

	var out []*types.LessonProgress
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		enrollment, err := ps.enrollmentRepo.GetByUserAndRoadmap(dbc, userID, roadmapID)
		if err != nil {
			return apierr.FromDB(err, "enrollment")
		}
		if enrollment == nil {
			return apierr.NotFound("enrollment")
		}
		lessons, err := ps.lessonRepo.GetByRoadmapID(dbc, roadmapID, false)
		if err != nil {
			return apierr.FromDB(err, "lesson")
		}
		inRoadmap := make(map[uuid.UUID]struct{}, len(lessons))
		for _, l := range lessons {
			inRoadmap[l.ID] = struct{}{}
		}
		for i, item := range items {
			if _, ok := inRoadmap[item.LessonID]; !ok {
				fieldErrs = append(fieldErrs, apierr.FieldError{
					Field:   fmt.Sprintf("items[%d].lessonId", i),
					Message: "is not an active lesson of this roadmap",
				})
			}
		}
		if len(fieldErrs) > 0 {
			return apierr.Validation(fieldErrs...)
		}
		out = make([]*types.LessonProgress, 0, len(items))
		for _, item := range items {
			row, err := ps.upsertProgress(dbc, userID, item.LessonID, item.LessonProgressInput)
			if err != nil {
				return err
			}
			out = append(out, row)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	ps.metrics.IncLearningEvent("bulk_lesson_progress")

	enrollment, err := ps.recalculate(ctx, userID, roadmapID, TriggerBulkProgress)
	if err != nil {
		return out, nil, err
	}
	return out, enrollment, nil
}

// ResetProgress deletes the user's rows for every lesson of the roadmap,
// active or not, and zeroes the enrollment.
func (ps *progressService) ResetProgress(ctx context.Context, userID, roadmapID uuid.UUID) (*types.Enrollment, error) {
	var out *types.Enrollment
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		enrollment, err := ps.enrollmentRepo.GetByUserAndRoadmap(dbc, userID, roadmapID)
		if err != nil {
			return apierr.FromDB(err, "enrollment")
		}
		if enrollment == nil {
			return apierr.NotFound("enrollment")
		}
		deleted, err := ps.progressRepo.FullDeleteByUserAndRoadmap(dbc, userID, roadmapID)
		if err != nil {
			return apierr.FromDB(err, "lesson progress")
		}
		if err := ps.enrollmentRepo.UpdateFields(dbc, enrollment.ID, map[string]interface{}{
			"progress":      0,
			"average_score": nil,
			"is_completed":  false,
			"completed_at":  nil,
		}); err != nil {
			return apierr.FromDB(err, "enrollment")
		}
		enrollment.Progress = 0
		enrollment.AverageScore = nil
		enrollment.IsCompleted = false
		enrollment.CompletedAt = nil
		out = enrollment
		ps.log.Info("progress reset", "user_id", userID, "roadmap_id", roadmapID, "deleted_rows", deleted)
		return nil
	})
	if err != nil {
		return nil, err
	}
	ps.metrics.IncLearningEvent("reset_progress")
	ps.invalidateStats(ctx, roadmapID)
	return out, nil
}

// SetManualProgress overrides the stored percentage until the next
// lesson-driven recalculation. Completion follows the usual transitions.
func (ps *progressService) SetManualProgress(ctx context.Context, userID, roadmapID uuid.UUID, progress *int) (*types.Enrollment, error) {
	if err := validate.Check(manualProgressSchema, validate.Fields{"progress": progress}); err != nil {
		return nil, err
	}
	var out *types.Enrollment
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		enrollment, err := ps.enrollmentRepo.GetByUserAndRoadmap(dbc, userID, roadmapID)
		if err != nil {
			return apierr.FromDB(err, "enrollment")
		}
		if enrollment == nil {
			return apierr.NotFound("enrollment")
		}
		isCompleted, completedAt := completionTransition(enrollment.IsCompleted, enrollment.CompletedAt, *progress, ps.now())
		if err := ps.enrollmentRepo.UpdateFields(dbc, enrollment.ID, map[string]interface{}{
			"progress":     *progress,
			"is_completed": isCompleted,
			"completed_at": completedAt,
		}); err != nil {
			return apierr.FromDB(err, "enrollment")
		}
		enrollment.Progress = *progress
		enrollment.IsCompleted = isCompleted
		enrollment.CompletedAt = completedAt
		out = enrollment
		return nil
	})
	if err != nil {
		return nil, err
	}
	ps.log.Debug("manual progress override", "user_id", userID, "roadmap_id", roadmapID, "progress", *progress)
	return out, nil
}

func (ps *progressService) ListRoadmapLessonProgress(ctx context.Context, userID, roadmapID uuid.UUID) ([]*types.LessonProgress, error) {
	dbc := dbctx.New(ctx)
	roadmap, err := ps.roadmapRepo.GetByID(dbc, roadmapID)
	if err != nil {
		return nil, apierr.FromDB(err, "roadmap")
	}
	if roadmap == nil {
		return nil, apierr.NotFound("roadmap")
	}
	rows, err := ps.progressRepo.GetByUserAndRoadmap(dbc, userID, roadmapID)
	if err != nil {
		return nil, apierr.FromDB(err, "lesson progress")
	}
	return rows, nil
}

func (ps *progressService) invalidateStats(ctx context.Context, roadmapID uuid.UUID) {
	if ps.stats == nil {
		return
	}
	ps.stats.Invalidate(ctx, roadmapID)
}
