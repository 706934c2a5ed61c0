package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock-trader/models"
	"stock-trader/utils"
)

type UserRepository struct {
	db *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "UserRepository.Create"

	slog.Debug("Create user start", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", user.Username))
	defer func() {
		if err != nil {
			slog.Error("Create user failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("Create user completed", slog.String("rqID", rqID), slog.String("op", op), slog.Uint64("userID", uint64(user.ID)))
		}
	}()

	err = r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "find user by id")
	}
	return &user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err, "find user by username")
	}
	return &user, nil
}

func (r *UserRepository) UpdateHash(ctx context.Context, id uint, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("hash", hash)
	if res.Error != nil {
		return fmt.Errorf("update hash: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update hash: %w", ErrNotFound)
	}
	return nil
}

// SetCash overwrites the balance.
func (r *UserRepository) SetCash(ctx context.Context, id uint, cash decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("cash", cash)
	if res.Error != nil {
		return fmt.Errorf("set cash: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("set cash: %w", ErrNotFound)
	}
	return nil
}

// Debit subtracts amount from the balance only if the balance covers it, so concurrent
// purchases can never drive cash below zero.
func (r *UserRepository) Debit(ctx context.Context, id uint, amount decimal.Decimal) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "UserRepository.Debit"

	slog.Debug("Debit start", slog.String("rqID", rqID), slog.String("op", op), slog.Uint64("userID", uint64(id)), slog.String("amount", amount.String()))
	defer func() {
		if err != nil {
			slog.Debug("Debit rejected", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND cash >= ?", id, amount).
		Update("cash", gorm.Expr("cash - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("debit: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func (r *UserRepository) Credit(ctx context.Context, id uint, amount decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("cash", gorm.Expr("cash + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("credit: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("credit: %w", ErrNotFound)
	}
	return nil
}
