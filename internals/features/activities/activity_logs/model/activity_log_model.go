// file: internals/features/activities/activity_logs/model/activity_log_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type ActivityTypeEnum string

const (
	ActivityDua   ActivityTypeEnum = "dua"
	ActivityDeed  ActivityTypeEnum = "deed"
	ActivityQuran ActivityTypeEnum = "quran"
)

func (t ActivityTypeEnum) Valid() bool {
	return t == ActivityDua || t == ActivityDeed || t == ActivityQuran
}

type ActivityLogModel struct {
	ActivityLogID         uuid.UUID        `gorm:"column:activity_log_id;type:uuid;default:gen_random_uuid();primaryKey" json:"activity_log_id"`
	ActivityLogUserID     uuid.UUID        `gorm:"column:activity_log_user_id;type:uuid;not null;index:idx_activity_log_user_ts,priority:1" json:"activity_log_user_id"`
	ActivityLogDeceasedID uuid.UUID        `gorm:"column:activity_log_deceased_id;type:uuid;not null;index" json:"activity_log_deceased_id"`
	ActivityLogType       ActivityTypeEnum `gorm:"column:activity_log_type;type:varchar(10);not null" json:"activity_log_type"`

	// Hanya untuk type=quran
	ActivityLogSurah     *string `gorm:"column:activity_log_surah;type:varchar(80)" json:"activity_log_surah"`
	ActivityLogPageFrom  *int    `gorm:"column:activity_log_page_from" json:"activity_log_page_from"`
	ActivityLogPageTo    *int    `gorm:"column:activity_log_page_to" json:"activity_log_page_to"`
	ActivityLogJuzNumber *int    `gorm:"column:activity_log_juz_number" json:"activity_log_juz_number"`

	ActivityLogTimestamp time.Time `gorm:"column:activity_log_timestamp;type:timestamptz;not null;index:idx_activity_log_user_ts,priority:2,sort:desc" json:"activity_log_timestamp"`
}

func (ActivityLogModel) TableName() string { return "activity_logs" }

/* =========================
   Weekly summary
========================= */

const SummaryWindow = 7 * 24 * time.Hour

type WeeklySummary struct {
	Since         time.Time `json:"since"`
	DuaCount      int64     `json:"dua_count"`
	DeedCount     int64     `json:"deed_count"`
	QuranSessions int64     `json:"quran_sessions"`
}

// Add: tambah hitungan per type; type lain diabaikan.
func (s *WeeklySummary) Add(t ActivityTypeEnum, n int64) {
	switch t {
	case ActivityDua:
		s.DuaCount += n
	case ActivityDeed:
		s.DeedCount += n
	case ActivityQuran:
		s.QuranSessions += n
	}
}

// Summarize: baris dengan timestamp >= since.
func Summarize(rows []ActivityLogModel, since time.Time) WeeklySummary {
	out := WeeklySummary{Since: since}
	for _, r := range rows {
		if r.ActivityLogTimestamp.Before(since) {
			continue
		}
		out.Add(r.ActivityLogType, 1)
	}
	return out
}
