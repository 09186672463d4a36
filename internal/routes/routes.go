package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/aydin-k/StudioSplitBack/internal/config"
	"github.com/aydin-k/StudioSplitBack/internal/handlers"
	"github.com/aydin-k/StudioSplitBack/internal/middleware"
	"github.com/aydin-k/StudioSplitBack/internal/models"
	"github.com/aydin-k/StudioSplitBack/internal/repository"
	"github.com/aydin-k/StudioSplitBack/internal/services"
	abusefeed "github.com/aydin-k/StudioSplitBack/internal/websocket"
)

// RegisterRoutes wires repositories, services, and handlers onto the app. The
// returned AbuseService is shared with the background scan scheduler so both
// surfaces run the same heuristics against the same collaborators.
func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, rdb *redis.Client) (*services.AbuseService, error) {
	userRepo := repository.NewUserRepository(db)
	providerRepo := repository.NewProviderProfileRepository(db)
	clientRepo := repository.NewClientProfileRepository(db)
	bookingRepo := repository.NewSplitBookingRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	abuseReviewRepo := repository.NewAbuseReviewRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	programRepo := repository.NewMentorshipProgramRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	var storageService services.StorageService
	if cfg.SupabaseURL != "" && cfg.SupabaseBucket != "" && cfg.SupabaseServiceKey != "" {
		storageService = services.NewSupabaseStorageService(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}

	var payments services.PaymentProvider
	var stripePayments *services.StripePayments
	if cfg.StripeSecretKey != "" {
		stripePayments = services.NewStripePayments(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
		payments = stripePayments
	}

	authHandler := handlers.NewAuthHandler(db, userRepo, providerRepo, clientRepo, cfg.JWTSecret)
	profileService := services.NewProfileService(providerRepo, clientRepo)
	onboardingHandler := handlers.NewOnboardingHandler(profileService)
	profileHandler := handlers.NewProfileHandler(profileService, storageService)
	matchService := services.NewMatchService(providerRepo)
	discoveryHandler := handlers.NewProviderDiscoveryHandler(providerRepo, clientRepo, matchService, reviewRepo)
	notificationService := services.NewNotificationService(notificationRepo)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	bookingService := services.NewBookingService(db, bookingRepo, userRepo, providerRepo, payments, notificationService, cfg.AppBaseURL)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	programService := services.NewProgramService(programRepo, enrollmentRepo, userRepo)
	programHandler := handlers.NewProgramHandler(programService)
	reviewHandler := handlers.NewReviewHandler(reviewRepo, bookingRepo)

	feedHub := abusefeed.NewHub()
	go feedHub.Run()
	abuseService := services.NewAbuseService(bookingRepo, reviewRepo, providerRepo, abuseReviewRepo, userRepo, feedHub)
	abuseHandler := handlers.NewAbuseHandler(abuseService, abuseReviewRepo, userRepo)
	feedHandler := handlers.NewAbuseFeedHandler(feedHub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	invalidateProviderCache := middleware.CacheInvalidate(rdb, "/api/v1/providers")

	providers := authProtected.Group("/providers")
	providers.Get("", middleware.Cache(rdb, cfg.CacheTTL), discoveryHandler.ListProviders)
	providers.Post("/onboarding", invalidateProviderCache, onboardingHandler.CompleteProviderOnboarding)
	providers.Get("/profile", profileHandler.GetProviderProfile)
	providers.Put("/profile", invalidateProviderCache, profileHandler.UpdateProviderProfile)
	providers.Post("/profile/avatar", invalidateProviderCache, profileHandler.UploadAvatar)
	providers.Post("/profile/media", profileHandler.UploadPortfolioMedia)
	providers.Delete("/profile/media", profileHandler.DeletePortfolioMedia)
	providers.Post("/profile/verification", profileHandler.RequestVerification)
	providers.Get("/recommended", discoveryHandler.GetRecommendedProviders)
	providers.Get("/:id", discoveryHandler.GetProviderDetail)
	providers.Get("/:id/reviews", discoveryHandler.ListProviderReviews)

	clients := authProtected.Group("/clients")
	clients.Post("/onboarding", onboardingHandler.CompleteClientOnboarding)
	clients.Get("/profile", profileHandler.GetClientProfile)
	clients.Put("/profile", profileHandler.UpdateClientProfile)
	clients.Post("/profile/avatar", profileHandler.UploadAvatar)

	bookings := authProtected.Group("/bookings")
	bookings.Post("", bookingHandler.CreateBooking)
	bookings.Get("", bookingHandler.ListBookings)
	bookings.Get("/:id", bookingHandler.GetBooking)
	bookings.Patch("/:id/status", bookingHandler.UpdateStatus)
	bookings.Post("/:id/checkout", bookingHandler.StartCheckout)
	bookings.Get("/:id/payment-status", bookingHandler.GetPaymentStatus)
	bookings.Post("/:id/talent-response", bookingHandler.RespondTalentInvite)

	if stripePayments != nil {
		webhookHandler := handlers.NewPaymentWebhookHandler(stripePayments, bookingService)
		api.Post("/v1/payments/webhook", webhookHandler.HandleStripeEvent)
	}

	programs := authProtected.Group("/programs")
	programs.Post("", programHandler.CreateProgram)
	programs.Get("", programHandler.ListPrograms)
	programs.Get("/enrollments", programHandler.ListEnrollments)
	programs.Get("/:id", programHandler.GetProgram)
	programs.Delete("/:id", programHandler.DeactivateProgram)
	programs.Post("/:id/enroll", programHandler.Enroll)

	reviews := authProtected.Group("/reviews")
	reviews.Post("", reviewHandler.CreateReview)

	notifications := authProtected.Group("/notifications")
	notifications.Get("", notificationHandler.ListNotifications)
	notifications.Patch("/:id/read", notificationHandler.MarkRead)

	admin := authProtected.Group("/admin", middleware.RoleRequired(models.RoleAdmin))
	admin.Post("/abuse/scan/:id", abuseHandler.ScanUser)
	admin.Get("/abuse/reviews", abuseHandler.ListPendingReviews)
	admin.Get("/abuse/reviews/:id", abuseHandler.GetReview)
	admin.Post("/abuse/reviews/:id/resolve", abuseHandler.ResolveReview)
	admin.Post("/providers/:id/verification", invalidateProviderCache, profileHandler.DecideVerification)
	admin.Patch("/reviews/:id/visibility", reviewHandler.SetReviewVisibility)

	api.Use("/v1/admin/abuse/feed", feedHandler.WebSocketAuth)
	api.Get("/v1/admin/abuse/feed", websocket.New(feedHandler.HandleWebSocket))

	if err := registerDocsRoutes(app, cfg); err != nil {
		return nil, err
	}

	return abuseService, nil
}
