package store

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pine/common"
	"pine/models"
)

const otpLifetime = 10 * time.Minute

type NewUser struct {
	Email          string
	Name           string
	Password       string
	Phone          string
	ProfilePicture string
	IsActive       bool
}

type ProfilePatch struct {
	Name           *string
	Phone          *string
	ProfilePicture *string
}

// NormalizeEmail lowercases the domain part and trims surrounding whitespace.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

func (s *Store) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return nil, common.NewValidation("User must have an email address.")
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, common.NewInternal(err)
	}

	user := models.User{
		Email:          email,
		Name:           strings.TrimSpace(in.Name),
		Phone:          in.Phone,
		ProfilePicture: in.ProfilePicture,
		PasswordHash:   hash,
		IsActive:       in.IsActive,
	}

	err = s.transaction(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return common.NewValidation("Email already exists")
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, uniqueViolation(err, "Email already exists")
	}
	return &user, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, notFound(err, "User not found")
	}
	return &user, nil
}

func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "User not found")
	}
	return &user, nil
}

func (s *Store) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.PasswordCost)
	return string(bytes), err
}

func (s *Store) CheckPassword(user *models.User, password string) bool {
	return CheckPasswordHash(password, user.PasswordHash)
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// IssueOTP stores a fresh six digit code on the user and returns it.
func (s *Store) IssueOTP(ctx context.Context, userID uint) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", common.NewInternal(err)
	}
	otp := fmt.Sprintf("%06d", n.Int64()+100000)

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"otp":        otp,
		"otp_expiry": s.now().Add(otpLifetime),
	})
	if res.Error != nil {
		return "", storageError(res.Error)
	}
	if res.RowsAffected == 0 {
		return "", common.NewNotFound("User not found")
	}
	return otp, nil
}

// VerifyOTP activates the account when otp matches the stored, unexpired code.
func (s *Store) VerifyOTP(ctx context.Context, email, otp string) (*models.User, error) {
	var user models.User
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.NewValidation("User not found")
			}
			return err
		}
		if user.IsActive {
			return common.NewValidation("User already verified")
		}
		if user.OTP == "" || subtle.ConstantTimeCompare([]byte(user.OTP), []byte(otp)) != 1 || s.now().After(user.OTPExpiry) {
			return common.NewValidation("Invalid or expired OTP")
		}

		user.IsActive = true
		user.OTP = ""
		user.OTPExpiry = time.Time{}
		return tx.Model(&user).Updates(map[string]any{
			"is_active":  true,
			"otp":        "",
			"otp_expiry": time.Time{},
		}).Error
	})
	if err != nil {
		return nil, storageError(err)
	}
	return &user, nil
}

func (s *Store) UpdateProfile(ctx context.Context, userID uint, patch ProfilePatch) (*models.User, error) {
	updates := map[string]any{}
	if patch.Name != nil {
		updates["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Phone != nil {
		updates["phone"] = strings.TrimSpace(*patch.Phone)
	}
	if patch.ProfilePicture != nil {
		updates["profile_picture"] = strings.TrimSpace(*patch.ProfilePicture)
	}

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
		if res.Error != nil {
			return nil, storageError(res.Error)
		}
	}
	return s.UserByID(ctx, userID)
}

// DeleteUser removes the user and everything the delete policy cascades to.
func (s *Store) DeleteUser(ctx context.Context, userID uint) error {
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return common.NewNotFound("User not found")
		}
		return deleteRow(tx, "users", userID)
	})
	return storageError(err)
}
