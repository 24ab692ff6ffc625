package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/dbctx"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
)

// UserTokenRepo stores login sessions. A session is one access/refresh pair;
// deleting the row revokes both tokens.
type UserTokenRepo interface {
	Create(dbc dbctx.Context, userTokens []*types.UserToken) ([]*types.UserToken, error)
	GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.UserToken, error)
	GetByAccessTokens(dbc dbctx.Context, accessTokens []string) ([]*types.UserToken, error)
	GetByRefreshTokens(dbc dbctx.Context, refreshTokens []string) ([]*types.UserToken, error)
	FullDeleteByIDs(dbc dbctx.Context, tokenIDs []uuid.UUID) error
	FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) (int64, error)
	FullDeleteExpired(dbc dbctx.Context, before time.Time) (int64, error)
}

type userTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	repoLog := baseLog.With("repo", "UserTokenRepo")
	return &userTokenRepo{db: db, log: repoLog}
}

func (r *userTokenRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *userTokenRepo) Create(dbc dbctx.Context, userTokens []*types.UserToken) ([]*types.UserToken, error) {
	if len(userTokens) == 0 {
		return []*types.UserToken{}, nil
	}
	if err := r.tx(dbc).Create(&userTokens).Error; err != nil {
		return nil, err
	}
	return userTokens, nil
}

func findIn[T any](q *gorm.DB, column string, values []T) ([]*types.UserToken, error) {
	results := []*types.UserToken{}
	if len(values) == 0 {
		return results, nil
	}
	if err := q.Where(column+" IN ?", values).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByUserIDs returns every live session of the users, newest first.
func (r *userTokenRepo) GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.UserToken, error) {
	return findIn(r.tx(dbc), "user_id", userIDs)
}

func (r *userTokenRepo) GetByAccessTokens(dbc dbctx.Context, accessTokens []string) ([]*types.UserToken, error) {
	return findIn(r.tx(dbc), "access_token", accessTokens)
}

func (r *userTokenRepo) GetByRefreshTokens(dbc dbctx.Context, refreshTokens []string) ([]*types.UserToken, error) {
	return findIn(r.tx(dbc), "refresh_token", refreshTokens)
}

func (r *userTokenRepo) FullDeleteByIDs(dbc dbctx.Context, tokenIDs []uuid.UUID) error {
	if len(tokenIDs) == 0 {
		return nil
	}
	return r.tx(dbc).Where("id IN ?", tokenIDs).Delete(&types.UserToken{}).Error
}

// FullDeleteByUserIDs ends every session of the users and reports how many
// were removed.
func (r *userTokenRepo) FullDeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	res := r.tx(dbc).Where("user_id IN ?", userIDs).Delete(&types.UserToken{})
	return res.RowsAffected, res.Error
}

// FullDeleteExpired prunes sessions whose refresh token expired before the
// cutoff.
func (r *userTokenRepo) FullDeleteExpired(dbc dbctx.Context, before time.Time) (int64, error) {
	res := r.tx(dbc).Where("expires_at < ?", before).Delete(&types.UserToken{})
	if res.Error == nil && res.RowsAffected > 0 {
		r.log.Debug("pruned expired sessions", "count", res.RowsAffected)
	}
	return res.RowsAffected, res.Error
}
