package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"stock-trader/models"
	"stock-trader/repository"
	"stock-trader/utils"
)

type AccountService struct {
	store        *repository.Store
	strictPolicy bool
}

func NewAccountService(store *repository.Store, strictPolicy bool) *AccountService {
	return &AccountService{store: store, strictPolicy: strictPolicy}
}

type RegisterInput struct {
	Username     string
	Password     string
	Confirmation string
}

// Register creates a user with the starting balance.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("AccountService.Register start", slog.String("rqID", rqID), slog.String("username", in.Username))

	if in.Username == "" {
		return nil, forbidden("must provide username")
	}
	if in.Password == "" || in.Confirmation == "" {
		return nil, forbidden("must provide password")
	}
	if in.Password != in.Confirmation {
		return nil, forbidden("passwords do not match")
	}
	if s.strictPolicy {
		if err := CheckPassword(in.Password); err != nil {
			return nil, err
		}
	}

	_, err := s.store.Users().FindByUsername(ctx, in.Username)
	if err == nil {
		return nil, forbidden("username already exists")
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Username: in.Username, Hash: string(hash), Cash: models.DefaultCash}
	if err := s.store.Users().Create(ctx, user); err != nil {
		// lost a race with another registration of the same name
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, forbidden("username already exists")
		}
		return nil, err
	}

	slog.Info("user registered", slog.String("rqID", rqID), slog.Uint64("userID", uint64(user.ID)))
	return user, nil
}

// Login checks the credentials and returns the matching user.
func (s *AccountService) Login(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" {
		return nil, forbidden("must provide username")
	}
	if password == "" {
		return nil, forbidden("must provide password")
	}

	user, err := s.store.Users().FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, forbidden("invalid username and/or password")
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Hash), []byte(password)); err != nil {
		return nil, forbidden("invalid username and/or password")
	}
	return user, nil
}

type ChangePasswordInput struct {
	Password     string
	NewPassword  string
	Confirmation string
}

func (s *AccountService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error {
	rqID := utils.GetRequestIDFromCtx(ctx)

	if in.Password == "" {
		return forbidden("must provide current password")
	}
	if in.NewPassword == "" || in.Confirmation == "" {
		return forbidden("must provide new password")
	}
	if in.NewPassword != in.Confirmation {
		return forbidden("new passwords do not match")
	}

	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Hash), []byte(in.Password)); err != nil {
		return forbidden("invalid password")
	}
	if in.NewPassword == in.Password {
		return forbidden("new password shouldn't match with old one")
	}
	if s.strictPolicy {
		if err := CheckPassword(in.NewPassword); err != nil {
			return err
		}
	}

	hash, err := hashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.store.Users().UpdateHash(ctx, userID, string(hash)); err != nil {
		return err
	}

	slog.Info("password changed", slog.String("rqID", rqID), slog.Uint64("userID", uint64(userID)))
	return nil
}

// AddCash resets the balance to the starting amount. It does not add to it.
func (s *AccountService) AddCash(ctx context.Context, userID uint) error {
	return s.store.Users().SetCash(ctx, userID, models.DefaultCash)
}

// hashPassword rejects passwords bcrypt cannot hash (over 72 bytes) as user error.
func hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, forbidden("password is too long")
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}
