package services

import (
	"context"
	"time"

	"debtbook/internal/backup"
	apperrors "debtbook/internal/errors"
	"debtbook/internal/logger"
	"debtbook/internal/models"
	"debtbook/internal/store"
)

// BackupService implements BackupServicer. It ties the codec, validator
// and reconciler together behind a single import/export surface.
type BackupService struct {
	store store.Store
	match backup.MatchPolicy
}

// NewBackupService creates a new backup service with the given duplicate
// matching thresholds.
func NewBackupService(s store.Store, match backup.MatchPolicy) BackupServicer {
	return &BackupService{store: s, match: match}
}

// ExportBackup serializes the full live state into the plain-text backup
// format.
func (s *BackupService) ExportBackup(ctx context.Context) (*ExportArtifact, error) {
	snapshot, err := s.liveSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &ExportArtifact{
		Filename: backup.ExportFilename(time.Now()),
		Content:  backup.Serialize(snapshot),
	}, nil
}

func (s *BackupService) ParseBackup(text string) (*models.BackupSnapshot, error) {
	snapshot, err := backup.Parse(text)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrBackupParse, err)
	}
	return snapshot, nil
}

func (s *BackupService) ValidateBackup(snapshot *models.BackupSnapshot) backup.ValidationResult {
	return backup.Validate(snapshot)
}

func (s *BackupService) GetBackupStats(snapshot *models.BackupSnapshot) models.BackupStats {
	return backup.ComputeStats(snapshot)
}

// GetLiveStats computes backup stats over the current database contents,
// as a preview of what an export would contain.
func (s *BackupService) GetLiveStats(ctx context.Context) (*models.BackupStats, error) {
	snapshot, err := s.liveSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	stats := backup.ComputeStats(snapshot)
	return &stats, nil
}

func (s *BackupService) Reconcile(ctx context.Context, snapshot *models.BackupSnapshot, opts backup.Options) (*backup.Result, error) {
	if !backup.ValidPolicy(opts.Policy) {
		return nil, apperrors.ErrInvalidPolicy
	}
	result, err := backup.NewReconciler(s.store, s.match).Reconcile(ctx, snapshot, opts)
	if err != nil {
		// Writes are not rolled back; pass the partial counts along so the
		// caller can tell the user what was applied before the failure.
		if result != nil {
			logger.Get().Errorw("reconciliation failed partway",
				"accounts_added", result.AccountsAdded,
				"transactions_added", result.TransactionsAdded,
				"error", err,
			)
		}
		return result, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// ImportBackup runs the full pipeline: parse, validate, then reconcile.
// Validation errors abort before any database mutation; warnings do not
// block the import.
func (s *BackupService) ImportBackup(ctx context.Context, text string, opts backup.Options) (*backup.Result, backup.ValidationResult, error) {
	snapshot, err := s.ParseBackup(text)
	if err != nil {
		return nil, backup.ValidationResult{}, err
	}

	validation := backup.Validate(snapshot)
	if !validation.IsValid {
		return nil, validation, apperrors.ErrBackupInvalid
	}
	if len(validation.Warnings) > 0 {
		logger.Get().Warnw("importing backup with warnings", "warnings", validation.Warnings)
	}

	result, err := s.Reconcile(ctx, snapshot, opts)
	if err != nil {
		return result, validation, err
	}
	return result, validation, nil
}

func (s *BackupService) liveSnapshot(ctx context.Context) (*models.BackupSnapshot, error) {
	accounts, err := s.store.Accounts(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	transactions, err := s.store.Transactions(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	currencies, err := s.store.Currencies(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	settings, err := s.store.Settings(ctx)
	if err != nil {
		if err == store.ErrNotFound {
			settings = &models.AppSettings{ID: models.SettingsID}
		} else {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return backup.BuildSnapshot(accounts, transactions, *settings, currencies), nil
}
