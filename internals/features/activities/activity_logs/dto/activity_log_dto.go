// file: internals/features/activities/activity_logs/dto/activity_log_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	"khatmaku_backend/internals/features/activities/activity_logs/model"
	svc "khatmaku_backend/internals/features/activities/activity_logs/service"
)

type LogSimpleRequest struct {
	ActivityLogDeceasedID uuid.UUID `json:"activity_log_deceased_id" validate:"required"`
}

type LogQuranRequest struct {
	ActivityLogDeceasedID uuid.UUID `json:"activity_log_deceased_id" validate:"required"`
	ActivityLogSurah      *string   `json:"activity_log_surah" validate:"omitempty,max=80"`
	ActivityLogPageFrom   *int      `json:"activity_log_page_from" validate:"omitempty,min=1,max=604"`
	ActivityLogPageTo     *int      `json:"activity_log_page_to" validate:"omitempty,min=1,max=604"`
	ActivityLogJuzNumber  *int      `json:"activity_log_juz_number" validate:"omitempty,min=1,max=30"`
}

func (r LogQuranRequest) ToInput() svc.QuranInput {
	return svc.QuranInput{
		Surah:     r.ActivityLogSurah,
		PageFrom:  r.ActivityLogPageFrom,
		PageTo:    r.ActivityLogPageTo,
		JuzNumber: r.ActivityLogJuzNumber,
	}
}

type ActivityLogResponse struct {
	ActivityLogID         uuid.UUID              `json:"activity_log_id"`
	ActivityLogDeceasedID uuid.UUID              `json:"activity_log_deceased_id"`
	ActivityLogType       model.ActivityTypeEnum `json:"activity_log_type"`
	ActivityLogSurah      *string                `json:"activity_log_surah,omitempty"`
	ActivityLogPageFrom   *int                   `json:"activity_log_page_from,omitempty"`
	ActivityLogPageTo     *int                   `json:"activity_log_page_to,omitempty"`
	ActivityLogJuzNumber  *int                   `json:"activity_log_juz_number,omitempty"`
	ActivityLogTimestamp  time.Time              `json:"activity_log_timestamp"`
}

func NewActivityLogResponse(m model.ActivityLogModel) ActivityLogResponse {
	return ActivityLogResponse{
		ActivityLogID:         m.ActivityLogID,
		ActivityLogDeceasedID: m.ActivityLogDeceasedID,
		ActivityLogType:       m.ActivityLogType,
		ActivityLogSurah:      m.ActivityLogSurah,
		ActivityLogPageFrom:   m.ActivityLogPageFrom,
		ActivityLogPageTo:     m.ActivityLogPageTo,
		ActivityLogJuzNumber:  m.ActivityLogJuzNumber,
		ActivityLogTimestamp:  m.ActivityLogTimestamp,
	}
}

func NewActivityLogResponses(rows []model.ActivityLogModel) []ActivityLogResponse {
	out := make([]ActivityLogResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, NewActivityLogResponse(r))
	}
	return out
}
