package worker

import (
	"context"

	"realty-listings/internal/models"

	"gorm.io/gorm"
)

// DBDeadLetter stores exhausted tasks in task_failures
func DBDeadLetter(db *gorm.DB) DeadLetterFunc {
	return func(ctx context.Context, f Failure) error {
		rec := models.TaskFailure{
			TaskName: f.Task,
			Attempts: f.Attempts,
			FailedAt: f.FailedAt,
		}
		if f.Err != nil {
			rec.LastError = f.Err.Error()
		}
		return db.WithContext(ctx).Create(&rec).Error
	}
}
