package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"filebox/backend/common"
	ferrors "filebox/backend/common/errors"
	"filebox/backend/library/blob"
	"filebox/backend/model"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type UserSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type LoginResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// UserService owns accounts: signup, login and account removal.
type UserService struct {
	cfg    common.Config
	db     *gorm.DB
	blobs  blob.Store
	tokens *TokenService
}

func NewUserService(cfg common.Config, db *gorm.DB, blobs blob.Store, tokens *TokenService) *UserService {
	return &UserService{cfg: cfg, db: db, blobs: blobs, tokens: tokens}
}

// Register creates an account and its storage directory.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*UserSummary, error) {
	req.Email = common.NormalizeEmail(req.Email)
	if err := common.Validate.Struct(req); err != nil {
		return nil, ferrors.Validation(ferrors.ErrSignupValidation, "Failed signup validation", common.Violations(err))
	}

	count, err := model.CountUsers(ctx, s.db)
	if err != nil {
		return nil, ferrors.Internal(ferrors.ErrDatabase, "Database error", err)
	}
	if count >= int64(s.cfg.MaxUsers) {
		return nil, ferrors.Capacity(ferrors.ErrTooManyUsers, "Sorry, too many users. Registration is closed.")
	}

	exists, err := model.EmailExists(ctx, s.db, req.Email)
	if err != nil {
		return nil, ferrors.Internal(ferrors.ErrDatabase, "Database error", err)
	}
	if exists {
		return nil, ferrors.Conflict(ferrors.ErrEmailTaken, "User with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, ferrors.Internal(ferrors.ErrInternalServer, "Could not hash password", err)
	}

	user := &model.User{Email: req.Email, Name: req.Name, Password: string(hash)}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if err := s.blobs.MkdirAll(ctx, UserDir(user.ID)); err != nil {
			return fmt.Errorf("provision storage: %w", err)
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ferrors.Conflict(ferrors.ErrEmailTaken, "User with this email already exists")
	}
	if err != nil {
		return nil, ferrors.Internal(ferrors.ErrDatabase, "Could not create user", err)
	}

	common.SysLog("user registered", "user_id", user.ID)
	return &UserSummary{ID: user.ID, Email: user.Email, Name: user.Name}, nil
}

// Authenticate checks the credentials and issues a token.
func (s *UserService) Authenticate(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	req.Email = common.NormalizeEmail(req.Email)
	if err := common.Validate.Struct(req); err != nil {
		return nil, ferrors.Validation(ferrors.ErrLoginValidation, "Failed login validation", common.Violations(err))
	}

	user, err := model.GetUserByEmail(ctx, s.db, req.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ferrors.Auth(ferrors.ErrEmailNotFound, "Authentication failed - email does not exist")
	}
	if err != nil {
		return nil, ferrors.Internal(ferrors.ErrDatabase, "Database error", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ferrors.Auth(ferrors.ErrWrongPassword, "Authentication failed - wrong password")
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, ferrors.Internal(ferrors.ErrTokenIssue, "Could not issue token", err)
	}
	return &LoginResult{Token: token, UserID: user.ID}, nil
}

// Deregister deletes the caller's account and files. The guest account is
// protected.
func (s *UserService) Deregister(ctx context.Context) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	if s.cfg.GuestUserID != "" && userID == s.cfg.GuestUserID {
		return "", ferrors.Forbidden(ferrors.ErrGuestAccount, "You can't delete Guest account.")
	}

	var removed int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed, err = model.DeleteUserCascade(ctx, tx, userID)
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ferrors.NotFound(ferrors.ErrUserNotFound, "User not found")
	}
	if err != nil {
		return "", ferrors.Internal(ferrors.ErrDatabase, "Could not delete user", err)
	}

	if err := s.tokens.Revoke(ctx, userID); err != nil {
		common.SysError("failed to revoke tokens", "user_id", userID, "error", err)
	}

	// The account is gone at this point; leftover artifacts are only logged.
	if err := s.blobs.RemoveAll(context.WithoutCancel(ctx), UserDir(userID)); err != nil {
		common.SysError("failed to remove user storage", "user_id", userID, "error", err)
	}

	common.SysLog("user deleted", "user_id", userID, "files", removed)
	return "User deleted", nil
}
