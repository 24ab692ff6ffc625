package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jCool10/LearnSmart-sub001/internal/data/repos"
	"github.com/jCool10/LearnSmart-sub001/internal/data/repos/testutil"
	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	"github.com/jCool10/LearnSmart-sub001/internal/observability"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	hits    int
	deletes int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	m.hits++
	return true, json.Unmarshal(raw, dest)
}

func (m *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	m.deletes++
	return nil
}

type testEnv struct {
	ctx   context.Context
	db    *gorm.DB
	clock *fakeClock
	cache *memCache

	users       repos.UserRepo
	progressRep repos.LessonProgressRepo
	enrollRepo  repos.EnrollmentRepo

	progress    ProgressService
	stats       StatsService
	enrollments EnrollmentService
	roadmaps    RoadmapService
	lessons     LessonService
	categories  CategoryService
	tags        TagService
	auth        AuthService
	userSvc     UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	metrics := observability.New()
	clock := newFakeClock()
	cache := newMemCache()

	userRepo := repos.NewUserRepo(db, log)
	tokenRepo := repos.NewUserTokenRepo(db, log)
	categoryRepo := repos.NewCategoryRepo(db, log)
	tagRepo := repos.NewTagRepo(db, log)
	roadmapRepo := repos.NewRoadmapRepo(db, log)
	lessonRepo := repos.NewLessonRepo(db, log)
	enrollmentRepo := repos.NewEnrollmentRepo(db, log)
	progressRepo := repos.NewLessonProgressRepo(db, log)

	stats := NewStatsService(db, log, roadmapRepo, lessonRepo, enrollmentRepo, progressRepo, cache, time.Minute, metrics)
	progress := NewProgressService(db, log, roadmapRepo, lessonRepo, enrollmentRepo, progressRepo, stats, metrics)
	progress.(*progressService).now = clock.Now
	enrollments := NewEnrollmentService(db, log, roadmapRepo, enrollmentRepo, progressRepo, stats, metrics)
	enrollments.(*enrollmentService).now = clock.Now
	auth := NewAuthService(db, log, userRepo, tokenRepo, "test-secret", 15*time.Minute, 24*time.Hour)

	return &testEnv{
		ctx:         context.Background(),
		db:          db,
		clock:       clock,
		cache:       cache,
		users:       userRepo,
		progressRep: progressRepo,
		enrollRepo:  enrollmentRepo,
		progress:    progress,
		stats:       stats,
		enrollments: enrollments,
		roadmaps:    NewRoadmapService(db, log, roadmapRepo, categoryRepo, tagRepo, enrollmentRepo, progressRepo, enrollments),
		lessons:     NewLessonService(db, log, roadmapRepo, lessonRepo, progress, stats),
		categories:  NewCategoryService(db, log, categoryRepo),
		tags:        NewTagService(db, log, tagRepo),
		auth:        auth,
		userSvc:     NewUserService(db, log, userRepo, tokenRepo),
	}
}

func (e *testEnv) seedUser(t *testing.T) *types.User {
	t.Helper()
	return testutil.SeedUser(t, e.ctx, e.db, "svc-"+uuid.NewString()[:8]+"@example.com")
}

// seedRoadmap creates an active roadmap with n active lessons.
func (e *testEnv) seedRoadmap(t *testing.T, n int) (*types.Roadmap, []*types.Lesson) {
	t.Helper()
	r := testutil.SeedRoadmap(t, e.ctx, e.db, "Roadmap "+uuid.NewString()[:8])
	var lessons []*types.Lesson
	if n > 0 {
		lessons = testutil.SeedLessons(t, e.ctx, e.db, r.ID, n)
	}
	return r, lessons
}

// enrolledUser seeds a user enrolled in roadmapID.
func (e *testEnv) enrolledUser(t *testing.T, roadmapID uuid.UUID) *types.User {
	t.Helper()
	u := e.seedUser(t)
	if _, err := e.enrollments.Enroll(e.ctx, u.ID, roadmapID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	return u
}

func (e *testEnv) reloadEnrollment(t *testing.T, userID, roadmapID uuid.UUID) *types.Enrollment {
	t.Helper()
	got, err := e.enrollments.Get(e.ctx, userID, roadmapID)
	if err != nil {
		t.Fatalf("get enrollment: %v", err)
	}
	return got
}

func (e *testEnv) countProgressRows(t *testing.T, userID, roadmapID uuid.UUID) int {
	t.Helper()
	rows, err := e.progress.ListRoadmapLessonProgress(e.ctx, userID, roadmapID)
	if err != nil {
		t.Fatalf("list progress: %v", err)
	}
	return len(rows)
}
