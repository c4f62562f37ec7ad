// ABOUTME: Operator password storage and checking
// ABOUTME: bcrypt hash kept in the settings table under admin_password

package authority

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/2389/keepsake/internal/store"
)

var (
	// ErrWrongPassword is returned when the submitted password does not match.
	ErrWrongPassword = errors.New("invalid password")
	// ErrPasswordUnset is returned before set-password has been run.
	ErrPasswordUnset = errors.New("admin password not configured")
)

// MinPasswordLength is enforced by SetPassword.
const MinPasswordLength = 8

// SetPassword hashes password and stores it as the operator password.
func SetPassword(ctx context.Context, s store.Store, password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.SetSetting(ctx, store.SettingAdminPassword, string(hash))
}

// CheckPassword compares password with the stored hash.
func CheckPassword(ctx context.Context, s store.Store, password string) error {
	hash, err := s.GetSetting(ctx, store.SettingAdminPassword)
	if errors.Is(err, store.ErrNotFound) {
		return ErrPasswordUnset
	}
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrWrongPassword
	}
	return nil
}
