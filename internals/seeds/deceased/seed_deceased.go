package deceased

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	profileModel "khatmaku_backend/internals/features/deceased/deceased_profiles/model"
	profileSvc "khatmaku_backend/internals/features/deceased/deceased_profiles/service"
	khatmaSvc "khatmaku_backend/internals/features/khatma/khatmas/service"
)

type DeceasedSeed struct {
	OwnerUserID    uuid.UUID `json:"owner_user_id"`
	Name           string    `json:"deceased_profile_name"`
	DeathDate      string    `json:"deceased_profile_death_date"`
	BurialLocation *string   `json:"deceased_profile_burial_location"`
	Public         bool      `json:"public"`
	KhatmaIsShared bool      `json:"khatma_is_shared"`
}

// SeedDeceasedFromJSON: profil + satu khatma per profil. Nama yang sudah dimiliki owner dilewati.
func SeedDeceasedFromJSON(ctx context.Context, profiles *profileSvc.ProfileService, khatmas *khatmaSvc.KhatmaService, filePath string) {
	log.Println("📥 Membaca file:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("❌ Gagal membaca file JSON: %v", err)
	}

	var rows []DeceasedSeed
	if err := sonic.Unmarshal(file, &rows); err != nil {
		log.Fatalf("❌ Gagal decode JSON: %v", err)
	}

	for _, r := range rows {
		existing, _, err := profiles.List(ctx, r.OwnerUserID, false, 500, 0)
		if err != nil {
			log.Fatalf("❌ Gagal cek profil owner %s: %v", r.OwnerUserID, err)
		}
		if hasName(existing, r.Name) {
			log.Printf("ℹ️ Profil %s sudah ada, lewati...", r.Name)
			continue
		}

		in := profileSvc.CreateInput{Name: r.Name, BurialLocation: r.BurialLocation}
		if r.DeathDate != "" {
			if t, err := time.Parse("2006-01-02", r.DeathDate); err == nil {
				in.DeathDate = &t
			}
		}

		p, err := profiles.Create(ctx, r.OwnerUserID, in)
		if err != nil {
			log.Printf("❌ Gagal seed %s: %v", r.Name, err)
			continue
		}
		if r.Public {
			if p, err = profiles.MakePublic(ctx, r.OwnerUserID, p.DeceasedProfileID); err != nil {
				log.Printf("❌ Gagal publish %s: %v", r.Name, err)
				continue
			}
		}
		if _, err := khatmas.Create(ctx, r.OwnerUserID, p.DeceasedProfileID, r.KhatmaIsShared); err != nil {
			log.Printf("❌ Gagal buat khatma %s: %v", r.Name, err)
			continue
		}
		log.Printf("✅ Seed %s (public=%t)", r.Name, r.Public)
	}
}

func hasName(rows []profileModel.DeceasedProfileModel, name string) bool {
	for _, p := range rows {
		if strings.EqualFold(p.DeceasedProfileName, strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}
