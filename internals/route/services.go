package routes

import (
	"gorm.io/gorm"

	"khatmaku_backend/internals/events"
	activityRepo "khatmaku_backend/internals/features/activities/activity_logs/repository"
	activitySvc "khatmaku_backend/internals/features/activities/activity_logs/service"
	collabRepo "khatmaku_backend/internals/features/deceased/deceased_collaborators/repository"
	collabSvc "khatmaku_backend/internals/features/deceased/deceased_collaborators/service"
	profileRepo "khatmaku_backend/internals/features/deceased/deceased_profiles/repository"
	profileSvc "khatmaku_backend/internals/features/deceased/deceased_profiles/service"
	khatmaRepo "khatmaku_backend/internals/features/khatma/khatmas/repository"
	khatmaSvc "khatmaku_backend/internals/features/khatma/khatmas/service"
	"khatmaku_backend/internals/metrics"
)

// Services: satu instance per proses, dipakai route & scheduler.
// Profiles/Collaborators nil kalau jalan tanpa DB.
type Services struct {
	DB            *gorm.DB
	Profiles      *profileSvc.ProfileService
	Collaborators *collabSvc.CollaboratorService
	Khatma        *khatmaSvc.KhatmaService
	Activities    *activitySvc.ActivityService
}

// NewServices: db nil = mode memory (khatma & activity saja, tanpa cek akses almarhum).
func NewServices(db *gorm.DB, pub events.Publisher, rec metrics.JuzRecorder) *Services {
	if db == nil {
		return &Services{
			Khatma: khatmaSvc.NewKhatmaService(
				khatmaRepo.NewMemoryKhatmaStore(),
				khatmaSvc.WithPublisher(pub),
				khatmaSvc.WithMetrics(rec),
			),
			Activities: activitySvc.NewActivityService(
				activityRepo.NewMemoryActivityStore(),
				activitySvc.WithPublisher(pub),
			),
		}
	}

	members := collabRepo.NewGormCollaboratorStore(db)
	profiles := profileSvc.NewProfileService(profileRepo.NewGormProfileStore(db), members)

	return &Services{
		DB:            db,
		Profiles:      profiles,
		Collaborators: collabSvc.NewCollaboratorService(members, profiles),
		Khatma: khatmaSvc.NewKhatmaService(
			khatmaRepo.NewGormKhatmaStore(db),
			khatmaSvc.WithPublisher(pub),
			khatmaSvc.WithMetrics(rec),
			khatmaSvc.WithDeceasedAccess(profiles),
		),
		Activities: activitySvc.NewActivityService(
			activityRepo.NewGormActivityStore(db),
			activitySvc.WithPublisher(pub),
			activitySvc.WithDeceasedAccess(profiles),
		),
	}
}
