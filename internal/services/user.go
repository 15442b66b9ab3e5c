package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/sololev-backend/internal/data/repos"
	types "github.com/yungbote/sololev-backend/internal/domain"
	"github.com/yungbote/sololev-backend/internal/normalization"
	"github.com/yungbote/sololev-backend/internal/platform/ctxutil"
	"github.com/yungbote/sololev-backend/internal/platform/dbctx"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
)

type UserService interface {
	// GetMe loads the user attached to ctx by the auth middleware.
	GetMe(ctx context.Context) (*types.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
	UpdateName(ctx context.Context, name string) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
	notifier Notifier
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, notifier Notifier) UserService {
	return &userService{
		db:       db,
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
		notifier: notifier,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		us.log.Warn("Request data not set in context")
		return nil, fmt.Errorf("%w: request data not set in context", ErrInvalidCredential)
	}
	return us.GetByID(ctx, rd.UserID)
}

func (us *userService) GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	users, err := us.userRepo.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{userID})
	if err != nil {
		return nil, classifyStoreError("get user", err)
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return users[0], nil
}

func (us *userService) UpdateName(ctx context.Context, name string) (*types.User, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: request data not set in context", ErrInvalidCredential)
	}
	name = normalization.Text(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	if err := us.userRepo.UpdateName(dbctx.Context{Ctx: ctx}, rd.UserID, name); err != nil {
		return nil, classifyStoreError("update name", err)
	}
	user, err := us.GetByID(ctx, rd.UserID)
	if err != nil {
		return nil, err
	}
	us.notifier.UserUpdated(user.ID, user)
	return user, nil
}
