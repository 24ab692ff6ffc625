package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/jCool10/LearnSmart-sub001/internal/data/repos"
	types "github.com/jCool10/LearnSmart-sub001/internal/domain"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/dbctx"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/ctxutil"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
	"github.com/jCool10/LearnSmart-sub001/internal/platform/validate"
)

const emailPattern = `^[^@\s]+@[^@\s]+\.[^@\s]+$`

type RegisterInput struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

type LoginInput struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type TokenPair struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	TokenType    string      `json:"tokenType"`
	ExpiresIn    int64       `json:"expiresIn"`
	User         *types.User `json:"user,omitempty"`
}

type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var registerSchema = validate.Schema{
	"email":     {Required: true, Pattern: emailPattern, Max: validate.Bound(254)},
	"password":  {Required: true, Min: validate.Bound(8), Max: validate.Bound(72)},
	"firstName": {Required: true, Min: validate.Bound(1), Max: validate.Bound(100)},
	"lastName":  {Required: true, Min: validate.Bound(1), Max: validate.Bound(100)},
}

var loginSchema = validate.Schema{
	"email":    {Required: true},
	"password": {Required: true},
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, error)
	Login(ctx context.Context, in LoginInput) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	AccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(s *string) *string {
	if s == nil {
		return nil
	}
	e := strings.ToLower(strings.TrimSpace(*s))
	return &e
}

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	email := normalizeEmail(in.Email)
	if err := validate.Check(registerSchema, validate.Fields{
		"email":     email,
		"password":  in.Password,
		"firstName": trimmed(in.FirstName),
		"lastName":  trimmed(in.LastName),
	}); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("hash password: %w", err))
	}
	user := &types.User{
		Email:     *email,
		Password:  string(hash),
		FirstName: strings.TrimSpace(*in.FirstName),
		LastName:  strings.TrimSpace(*in.LastName),
		Role:      types.RoleUser,
		IsActive:  true,
	}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		exists, err := as.userRepo.EmailExists(dbc, user.Email)
		if err != nil {
			return apierr.FromDB(err, "user")
		}
		if exists {
			return apierr.Conflict("email already registered")
		}
		if _, err := as.userRepo.Create(dbc, []*types.User{user}); err != nil {
			if apierr.IsUniqueViolation(err) {
				return apierr.Conflict("email already registered")
			}
			return apierr.FromDB(err, "user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	as.log.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (as *authService) Login(ctx context.Context, in LoginInput) (*TokenPair, error) {
	email := normalizeEmail(in.Email)
	if err := validate.Check(loginSchema, validate.Fields{"email": email, "password": in.Password}); err != nil {
		return nil, err
	}
	users, err := as.userRepo.GetByEmails(dbctx.New(ctx), []string{*email})
	if err != nil {
		return nil, apierr.FromDB(err, "user")
	}
	if len(users) == 0 {
		return nil, apierr.Unauthorized("invalid email or password")
	}
	user := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(*in.Password)); err != nil {
		return nil, apierr.Unauthorized("invalid email or password")
	}
	if !user.IsActive {
		return nil, apierr.Forbidden("account is disabled")
	}

	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := as.issueTokens(dbctx.Context{Ctx: ctx, Tx: tx}, user)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	as.log.Info("user logged in", "user_id", user.ID)
	return pair, nil
}

// Refresh exchanges a live refresh token for a new pair and deletes the old row.
func (as *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apierr.Validation(apierr.FieldError{Field: "refreshToken", Message: "is required"})
	}
	var pair *TokenPair
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		found, err := as.userTokenRepo.GetByRefreshTokens(dbc, []string{refreshToken})
		if err != nil {
			return apierr.FromDB(err, "token")
		}
		if len(found) == 0 {
			return apierr.Unauthorized("invalid refresh token")
		}
		existing := found[0]
		if existing.ExpiresAt.Before(as.now()) {
			if err := as.userTokenRepo.FullDeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
				return apierr.FromDB(err, "token")
			}
			return errRefreshExpired
		}
		user, err := as.userRepo.GetByID(dbc, existing.UserID)
		if err != nil {
			return apierr.FromDB(err, "user")
		}
		if user == nil || !user.IsActive {
			return apierr.Unauthorized("invalid refresh token")
		}
		p, err := as.issueTokens(dbc, user)
		if err != nil {
			return err
		}
		if err := as.userTokenRepo.FullDeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
			return apierr.FromDB(err, "token")
		}
		pair = p
		return nil
	})
	if errors.Is(err, errRefreshExpired) {
		// The expired row must be gone even though the call fails.
		if _, delErr := as.userTokenRepo.FullDeleteExpired(dbctx.New(ctx), as.now()); delErr != nil {
			as.log.Warn("failed to prune expired tokens", "error", delErr)
		}
		return nil, apierr.Unauthorized("refresh token expired")
	}
	if err != nil {
		return nil, err
	}
	return pair, nil
}

var errRefreshExpired = errors.New("refresh token expired")

func (as *authService) Logout(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return apierr.Unauthorized("not authenticated")
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		found, err := as.userTokenRepo.GetByAccessTokens(dbc, []string{rd.TokenString})
		if err != nil {
			return apierr.FromDB(err, "token")
		}
		if len(found) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, 0, len(found))
		for _, t := range found {
			ids = append(ids, t.ID)
		}
		if err := as.userTokenRepo.FullDeleteByIDs(dbc, ids); err != nil {
			return apierr.FromDB(err, "token")
		}
		as.log.Info("user logged out", "user_id", rd.UserID)
		return nil
	})
}

func (as *authService) issueTokens(dbc dbctx.Context, user *types.User) (*TokenPair, error) {
	access, err := as.generateAccessToken(user)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("sign access token: %w", err))
	}
	row := &types.UserToken{
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    as.now().Add(as.refreshTTL),
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{row}); err != nil {
		return nil, apierr.FromDB(err, "token")
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: row.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(as.accessTTL.Seconds()),
		User:         user,
	}, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := as.now()
	claims := JWTClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken verifies the JWT and that its session row still exists,
// then stores the caller on the context.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apierr.Unauthorized("missing token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, apierr.Unauthorized("invalid or expired token")
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, apierr.Unauthorized("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Unauthorized("invalid token subject")
	}
	found, err := as.userTokenRepo.GetByAccessTokens(dbctx.New(ctx), []string{tokenString})
	if err != nil {
		return ctx, apierr.FromDB(err, "token")
	}
	if len(found) == 0 {
		return ctx, apierr.Unauthorized("session has ended")
	}
	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Role:        claims.Role,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) AccessTTL() time.Duration {
	return as.accessTTL
}
