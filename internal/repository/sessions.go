// internal/repository/sessions.go
package repository

import (
	"fmt"

	"github.com/CkBcDD/NexBack/internal/database"
	"github.com/CkBcDD/NexBack/internal/models"

	"gorm.io/gorm"
)

// SaveSessionTx saves the summary and all trial rows for a finished
// session in a single transaction.
func SaveSessionTx(record models.SessionRecord, trials []models.TrialRecord) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to insert session record: %w", err)
		}

		if len(trials) == 0 {
			return nil
		}
		for i := range trials {
			trials[i].SessionRecordID = record.ID
		}
		if err := tx.Create(&trials).Error; err != nil {
			return fmt.Errorf("failed to insert trial records: %w", err)
		}
		return nil
	})
}

// GetSessionBySessionID looks up one persisted session by its handle.
func GetSessionBySessionID(sessionID string) (*models.SessionRecord, error) {
	var record models.SessionRecord
	if err := database.DB.Where("session_id = ?", sessionID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// GetTrialsForSession returns the scored trials of a persisted session
// in trial-index order.
func GetTrialsForSession(recordID uint) ([]models.TrialRecord, error) {
	var trials []models.TrialRecord
	err := database.DB.
		Where("session_record_id = ?", recordID).
		Order("trial_index ASC").
		Find(&trials).Error
	return trials, err
}

// ListSessionHistory returns the most recent session summaries, newest
// first.
func ListSessionHistory(limit int) ([]models.SessionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []models.SessionRecord
	err := database.DB.
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
