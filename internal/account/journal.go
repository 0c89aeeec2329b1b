// File: internal/account/journal.go
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Operation statuses.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Step names, in execution order.
const (
	StepDeleteCredential = "delete_credential"
	StepDeleteProfile    = "delete_profile"
	StepDeletePrefs      = "delete_prefs"
)

// KindDeleteUser is the only operation kind the journal currently records.
const KindDeleteUser = "delete_user"

// AccountOperation records the progress of one multi-step account operation so a retry can
// skip the steps that already succeeded.
type AccountOperation struct {
	ID                string `gorm:"primaryKey;size:200"`
	Kind              string `gorm:"size:50;not null"`
	TargetUID         string `gorm:"size:128;not null;index"`
	RequestedBy       string `gorm:"size:128"`
	Status            string `gorm:"size:20;not null"`
	CredentialDeleted bool   `gorm:"not null;default:false"`
	ProfileDeleted    bool   `gorm:"not null;default:false"`
	PrefsDeleted      bool   `gorm:"not null;default:false"`
	FailedStep        string `gorm:"size:50"`
	LastError         string `gorm:"type:text"`
	Attempts          int    `gorm:"not null;default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (AccountOperation) TableName() string {
	return "account_operations"
}

// Done reports whether step has already completed.
func (o *AccountOperation) Done(step string) bool {
	switch step {
	case StepDeleteCredential:
		return o.CredentialDeleted
	case StepDeleteProfile:
		return o.ProfileDeleted
	case StepDeletePrefs:
		return o.PrefsDeleted
	default:
		return false
	}
}

func operationID(kind, uid string) string {
	return kind + ":" + uid
}

// Journal persists AccountOperation rows.
type Journal interface {
	Begin(ctx context.Context, kind, targetUID, requestedBy string) (*AccountOperation, error)
	MarkDone(ctx context.Context, op *AccountOperation, step string) error
	MarkFailed(ctx context.Context, op *AccountOperation, step string, cause error) error
	Complete(ctx context.Context, op *AccountOperation) error
	Find(ctx context.Context, kind, targetUID string) (*AccountOperation, error)
}

type gormJournal struct {
	db *gorm.DB
}

// NewGORMJournal creates a journal backed by the operations database.
func NewGORMJournal(db *gorm.DB) Journal {
	return &gormJournal{db: db}
}

// Begin loads the operation row for (kind, targetUID), creating it on first use, and
// counts the attempt. A completed operation starts over with every step pending: the uid
// may have been issued again since.
func (j *gormJournal) Begin(ctx context.Context, kind, targetUID, requestedBy string) (*AccountOperation, error) {
	op := &AccountOperation{
		ID:          operationID(kind, targetUID),
		Kind:        kind,
		TargetUID:   targetUID,
		RequestedBy: requestedBy,
		Status:      StatusInProgress,
	}

	err := j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(op).Error; err != nil {
			return err
		}
		if err := tx.First(op, "id = ?", op.ID).Error; err != nil {
			return err
		}
		if op.Status == StatusCompleted {
			op.CredentialDeleted, op.ProfileDeleted, op.PrefsDeleted = false, false, false
			op.Attempts = 0
		}
		op.Attempts++
		op.Status = StatusInProgress
		op.RequestedBy = requestedBy
		return tx.Model(op).Updates(map[string]interface{}{
			"attempts":           op.Attempts,
			"status":             op.Status,
			"requested_by":       op.RequestedBy,
			"credential_deleted": op.CredentialDeleted,
			"profile_deleted":    op.ProfileDeleted,
			"prefs_deleted":      op.PrefsDeleted,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s journal entry: %w", kind, err)
	}
	return op, nil
}

func (j *gormJournal) MarkDone(ctx context.Context, op *AccountOperation, step string) error {
	column := ""
	switch step {
	case StepDeleteCredential:
		op.CredentialDeleted = true
		column = "credential_deleted"
	case StepDeleteProfile:
		op.ProfileDeleted = true
		column = "profile_deleted"
	case StepDeletePrefs:
		op.PrefsDeleted = true
		column = "prefs_deleted"
	default:
		return fmt.Errorf("unknown step %q", step)
	}
	if err := j.db.WithContext(ctx).Model(op).Update(column, true).Error; err != nil {
		return fmt.Errorf("recording step %s: %w", step, err)
	}
	return nil
}

func (j *gormJournal) MarkFailed(ctx context.Context, op *AccountOperation, step string, cause error) error {
	op.Status = StatusFailed
	op.FailedStep = step
	op.LastError = cause.Error()
	err := j.db.WithContext(ctx).Model(op).Updates(map[string]interface{}{
		"status":      op.Status,
		"failed_step": op.FailedStep,
		"last_error":  op.LastError,
	}).Error
	if err != nil {
		return fmt.Errorf("recording failure of %s: %w", step, err)
	}
	return nil
}

func (j *gormJournal) Complete(ctx context.Context, op *AccountOperation) error {
	op.Status = StatusCompleted
	op.FailedStep = ""
	op.LastError = ""
	err := j.db.WithContext(ctx).Model(op).Updates(map[string]interface{}{
		"status":      op.Status,
		"failed_step": "",
		"last_error":  "",
	}).Error
	if err != nil {
		return fmt.Errorf("completing operation: %w", err)
	}
	return nil
}

// Find returns (nil, nil) when no operation has been recorded.
func (j *gormJournal) Find(ctx context.Context, kind, targetUID string) (*AccountOperation, error) {
	var op AccountOperation
	err := j.db.WithContext(ctx).First(&op, "id = ?", operationID(kind, targetUID)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &op, nil
}
