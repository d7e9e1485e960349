package services

import (
	"time"

	"unilms_go/config"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StartScheduler wires the background maintenance jobs and starts the cron
// runner. The returned cron can be stopped on shutdown.
func StartScheduler() *cron.Cron {
	c := cron.New()

	if config.AppConfig.UseRedisQueues {
		// Staged audit rows and attendance recompute tasks drain often.
		if _, err := c.AddFunc("*/5 * * * *", FlushLogQueue); err != nil {
			logrus.WithError(err).Error("Failed to schedule log flush job")
		}
		if _, err := c.AddFunc("*/2 * * * *", DrainAttendanceRecomputeQueue); err != nil {
			logrus.WithError(err).Error("Failed to schedule attendance recompute job")
		}
	}

	if config.AppConfig.EnableLogArchive {
		if _, err := c.AddFunc("30 2 * * *", ArchiveOldLogs); err != nil {
			logrus.WithError(err).Error("Failed to schedule log archive job")
		}
	}

	// Finalize offerings of terms whose grade submission deadline passed.
	if _, err := c.AddFunc("0 3 * * *", func() { FinalizeDueOfferings(time.Now()) }); err != nil {
		logrus.WithError(err).Error("Failed to schedule finalization sweep")
	}

	c.Start()
	logrus.Info("Background scheduler started")
	return c
}
