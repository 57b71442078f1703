package seeds

import (
	"context"

	"khatmaku_backend/internals/features/deceased/deceased_profiles/service"
	khatmaSvc "khatmaku_backend/internals/features/khatma/khatmas/service"
	deceased "khatmaku_backend/internals/seeds/deceased"
)

// RunAllSeeds: data demo untuk dev (RUN_SEED=true). Tidak dijalankan di mode memory.
func RunAllSeeds(ctx context.Context, profiles *service.ProfileService, khatmas *khatmaSvc.KhatmaService) {
	//* Deceased + khatma
	deceased.SeedDeceasedFromJSON(ctx, profiles, khatmas, "internals/seeds/deceased/data_deceased.json")
}
