package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"unilms_go/config"
	"unilms_go/database"
	"unilms_go/models"
	"unilms_go/storage"

	"github.com/sirupsen/logrus"
)

// logArchiveAge is how old an audit row must be before it is archived.
const logArchiveAge = 90 * 24 * time.Hour

// FlushLogQueue moves staged audit rows from Redis into the database. Run by
// the maintenance scheduler.
func FlushLogQueue() {
	redisClient := database.GetRedisClient()
	if redisClient == nil {
		return
	}

	ctx := context.Background()
	keys, err := redisClient.ZRange(ctx, "logs:queue", 0, 499).Result()
	if err != nil || len(keys) == 0 {
		return
	}

	flushed := 0
	for _, key := range keys {
		data, err := redisClient.Get(ctx, key).Result()
		if err != nil {
			redisClient.ZRem(ctx, "logs:queue", key)
			continue
		}

		var al models.ActivityLog
		if err := json.Unmarshal([]byte(data), &al); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Dropping malformed staged log")
			redisClient.Del(ctx, key)
			redisClient.ZRem(ctx, "logs:queue", key)
			continue
		}

		if err := database.DB.Create(&al).Error; err != nil {
			logrus.WithError(err).Error("Failed to flush staged log to database")
			continue
		}
		redisClient.Del(ctx, key)
		redisClient.ZRem(ctx, "logs:queue", key)
		flushed++
	}

	if flushed > 0 {
		logrus.WithField("count", flushed).Info("Flushed staged activity logs")
	}
}

// ArchiveOldLogs zips audit rows older than the retention window, uploads the
// archive to S3, records a LogArchive row, and deletes the archived rows.
func ArchiveOldLogs() {
	if !config.AppConfig.EnableLogArchive {
		return
	}

	cutoff := time.Now().Add(-logArchiveAge)
	var logs []models.ActivityLog
	if err := database.DB.Where("created_at < ?", cutoff).
		Order("created_at ASC").Limit(10000).Find(&logs).Error; err != nil {
		logrus.WithError(err).Error("Failed to load logs for archival")
		return
	}
	if len(logs) == 0 {
		return
	}

	startDate := logs[0].CreatedAt
	endDate := logs[len(logs)-1].CreatedAt
	fileName := fmt.Sprintf("activity_logs_%s_%s.zip",
		startDate.Format("20060102"), endDate.Format("20060102"))
	s3Key := fmt.Sprintf("activity-logs/%d/%s", startDate.Year(), fileName)

	archive := models.LogArchive{
		FileName:    fileName,
		S3Key:       s3Key,
		StartDate:   startDate,
		EndDate:     endDate,
		RecordCount: len(logs),
		Status:      "pending",
	}
	if err := database.DB.Create(&archive).Error; err != nil {
		logrus.WithError(err).Error("Failed to create log archive record")
		return
	}

	data, err := zipLogs(fileName, logs)
	if err != nil {
		markArchiveFailed(&archive, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	s3Client, err := storage.NewS3Client(ctx)
	if err != nil {
		markArchiveFailed(&archive, err)
		return
	}
	size, err := s3Client.Upload(ctx, s3Key, data, "application/zip")
	if err != nil {
		markArchiveFailed(&archive, err)
		return
	}

	ids := make([]interface{}, 0, len(logs))
	for _, l := range logs {
		ids = append(ids, l.ID)
	}
	if err := database.DB.Unscoped().Delete(&models.ActivityLog{}, "id IN ?", ids).Error; err != nil {
		logrus.WithError(err).Error("Failed to delete archived logs")
	}

	database.DB.Model(&archive).Updates(map[string]interface{}{
		"status":    "completed",
		"file_size": size,
	})
	logrus.WithFields(logrus.Fields{
		"s3_key": s3Key,
		"count":  len(logs),
	}).Info("Archived activity logs")
}

func zipLogs(fileName string, logs []models.ActivityLog) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	jsonName := fileName[:len(fileName)-len(".zip")] + ".json"
	w, err := zw.Create(jsonName)
	if err != nil {
		return nil, err
	}
	enc := json.NewEncoder(w)
	for _, l := range logs {
		if err := enc.Encode(l); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func markArchiveFailed(archive *models.LogArchive, cause error) {
	logrus.WithError(cause).Error("Log archival failed")
	database.DB.Model(archive).Updates(map[string]interface{}{
		"status": "failed",
		"error":  cause.Error(),
	})
}
