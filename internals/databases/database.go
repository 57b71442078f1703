package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"khatmaku_backend/internals/configs"
	activityModel "khatmaku_backend/internals/features/activities/activity_logs/model"
	collabModel "khatmaku_backend/internals/features/deceased/deceased_collaborators/model"
	deceasedModel "khatmaku_backend/internals/features/deceased/deceased_profiles/model"
	khatmaModel "khatmaku_backend/internals/features/khatma/khatmas/model"
)

func ConnectDB(cfg configs.AppConfig) (*gorm.DB, error) {
	log.Println("🔌 Koneksi ke PostgreSQL...")

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true, // 👍 cocok untuk PgBouncer (transaction pooling)
	}), &gorm.Config{
		Logger:         configs.NewGormLogger(),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := ping(db); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	log.Println("✅ DB connected.")
	return db, nil
}

func TunePool(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

// Migrate: urutan penting (khatma & activity refer ke deceased_profiles).
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}
	if err := db.AutoMigrate(
		&deceasedModel.DeceasedProfileModel{},
		&collabModel.DeceasedCollaboratorModel{},
		&khatmaModel.KhatmaModel{},
		&khatmaModel.KhatmaJuzModel{},
		&activityModel.ActivityLogModel{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Println("✅ Migrasi selesai.")
	return nil
}

func ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
