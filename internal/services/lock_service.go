package services

import (
	"context"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	apperrors "debtbook/internal/errors"
	"debtbook/internal/store"
)

// LockService implements LockServicer. The PIN itself is never stored,
// only its bcrypt hash on the settings row.
type LockService struct {
	store    store.Store
	settings SettingsServicer
}

// NewLockService creates a new app lock service.
func NewLockService(s store.Store, settings SettingsServicer) LockServicer {
	return &LockService{store: s, settings: settings}
}

func (s *LockService) PINConfigured(ctx context.Context) (bool, error) {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return false, err
	}
	return settings.PINHash != "", nil
}

// SetPIN sets or changes the app lock PIN. Changing an existing PIN
// requires the current one.
func (s *LockService) SetPIN(ctx context.Context, currentPIN, newPIN string) error {
	if err := validPIN(newPIN); err != nil {
		return err
	}

	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return err
	}
	if settings.PINHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(settings.PINHash), []byte(currentPIN)); err != nil {
			return apperrors.ErrInvalidPIN
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPIN), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.saveHash(ctx, string(hash))
}

func (s *LockService) VerifyPIN(ctx context.Context, pin string) error {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return err
	}
	if settings.PINHash == "" {
		return apperrors.ErrPINNotSet
	}
	if err := bcrypt.CompareHashAndPassword([]byte(settings.PINHash), []byte(pin)); err != nil {
		return apperrors.ErrInvalidPIN
	}
	return nil
}

// DisableLock removes the PIN after verifying the current one.
func (s *LockService) DisableLock(ctx context.Context, pin string) error {
	if err := s.VerifyPIN(ctx, pin); err != nil {
		return err
	}
	return s.saveHash(ctx, "")
}

// saveHash writes the hash straight to the store; the hash is deliberately
// not exposed through SettingsUpdateFields.
func (s *LockService) saveHash(ctx context.Context, hash string) error {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return err
	}
	settings.PINHash = hash
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func validPIN(pin string) error {
	if len(pin) < 4 || len(pin) > 8 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "PIN must be 4 to 8 digits")
	}
	for _, r := range pin {
		if !unicode.IsDigit(r) {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "PIN must contain only digits")
		}
	}
	return nil
}
