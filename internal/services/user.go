package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jCool10/LearnSmart-sub001/internal/data/repos"
	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/dbctx"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/ctxutil"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
)

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	Get(ctx context.Context, userID uuid.UUID) (*types.User, error)
	SetRole(ctx context.Context, email, role string) (*types.User, error)
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, userTokenRepo repos.UserTokenRepo) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		us.log.Warn("Request data not set in context")
		return nil, apierr.Unauthorized("not authenticated")
	}
	return us.Get(ctx, rd.UserID)
}

func (us *userService) Get(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	user, err := us.userRepo.GetByID(dbctx.New(ctx), userID)
	if err != nil {
		return nil, apierr.FromDB(err, "user")
	}
	if user == nil {
		return nil, apierr.NotFound("user")
	}
	return user, nil
}

// SetRole changes a user's role by email. Used by the ops CLI.
// Access tokens carry the role, so the user's sessions are revoked and the
// new role applies from the next login.
func (us *userService) SetRole(ctx context.Context, email, role string) (*types.User, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != types.RoleUser && role != types.RoleAdmin {
		return nil, apierr.Validation(apierr.FieldError{Field: "role", Message: "must be one of [user, admin]"})
	}
	var user *types.User
	var revoked int64
	err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		users, err := us.userRepo.GetByEmails(dbc, []string{email})
		if err != nil {
			return apierr.FromDB(err, "user")
		}
		if len(users) == 0 {
			return apierr.NotFound("user")
		}
		user = users[0]
		if user.Role == role {
			return nil
		}
		if err := us.userRepo.UpdateFields(dbc, user.ID, map[string]interface{}{"role": role}); err != nil {
			return apierr.FromDB(err, "user")
		}
		user.Role = role
		if us.userTokenRepo != nil {
			if revoked, err = us.userTokenRepo.FullDeleteByUserIDs(dbc, []uuid.UUID{user.ID}); err != nil {
				return apierr.FromDB(err, "token")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	us.log.Info("user role set", "user_id", user.ID, "role", role, "sessions_revoked", revoked)
	return user, nil
}
