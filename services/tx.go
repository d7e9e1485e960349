package services

import (
	"database/sql"
	"time"

	"unilms_go/apperrors"
	"unilms_go/config"
	"unilms_go/database"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// runSerializable executes fn inside a serializable transaction with bounded
// retry on serialization failure. Validation failures propagate immediately;
// only transient conflicts are retried.
func runSerializable(fn func(tx *gorm.DB) error) error {
	retries := 3
	if config.AppConfig != nil {
		retries = config.AppConfig.EnrollmentRetries
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
		}

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			return fn(tx)
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})

		if err == nil {
			return nil
		}
		if _, ok := apperrors.As(err); ok {
			return err
		}
		if !apperrors.IsSerializationFailure(err) {
			return apperrors.Wrap(err, apperrors.KindInternal, "transaction failed")
		}

		lastErr = err
		logrus.WithError(err).WithField("attempt", attempt+1).Warn("Serialization conflict, retrying transaction")
	}

	return apperrors.Wrap(lastErr, apperrors.KindInternal, "transaction failed after %d retries", retries)
}
