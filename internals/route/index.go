// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	authMiddleware "khatmaku_backend/internals/middlewares/auth"
	routeDetails "khatmaku_backend/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, s *Services, jwtSecret string) {
	startTime = time.Now()

	BaseRoutes(app, s.DB)

	// ===================== GROUPS =====================

	// PUBLIC → JWT opsional
	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api/public",
		authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
			Secret:   jwtSecret,
			Optional: true,
		}),
	)

	// PRIVATE (USER) → JWT wajib
	log.Println("[INFO] Setting up PRIVATE group...")
	private := app.Group("/api/u",
		authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
			Secret:              jwtSecret,
			AllowCookieFallback: true,
		}),
	)

	// ===================== MOUNT ROUTES =====================

	if s.Profiles != nil && s.Collaborators != nil {
		log.Println("[INFO] Mounting Deceased routes...")
		routeDetails.DeceasedPublicRoutes(public, s.Profiles)
		routeDetails.DeceasedUserRoutes(private, s.Profiles, s.Collaborators)
	} else {
		log.Println("[WARN] Deceased routes tidak dipasang (mode memory)")
	}

	log.Println("[INFO] Mounting Khatma routes...")
	routeDetails.KhatmaUserRoutes(private, s.Khatma)

	log.Println("[INFO] Mounting Activity routes...")
	routeDetails.ActivityUserRoutes(private, s.Activities)
}
