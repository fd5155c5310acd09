package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"anoa.com/localswap/internal/config"
	"anoa.com/localswap/internal/jobs"
	"anoa.com/localswap/internal/middleware"
	"anoa.com/localswap/pkg/events"
	"anoa.com/localswap/pkg/push"
	"anoa.com/localswap/pkg/ratelimiter"
	"anoa.com/localswap/pkg/storage"
	"anoa.com/localswap/pkg/validator"

	blockHttp "anoa.com/localswap/internal/modules/block/delivery/http"
	blockRepo "anoa.com/localswap/internal/modules/block/repository"
	blockService "anoa.com/localswap/internal/modules/block/service"

	chatHttp "anoa.com/localswap/internal/modules/chat/delivery/http"
	chatRepo "anoa.com/localswap/internal/modules/chat/repository"
	chatService "anoa.com/localswap/internal/modules/chat/service"

	quoteRepo "anoa.com/localswap/internal/modules/encouragement/repository"
	encouragementService "anoa.com/localswap/internal/modules/encouragement/service"

	interestHttp "anoa.com/localswap/internal/modules/interest/delivery/http"
	interestRepo "anoa.com/localswap/internal/modules/interest/repository"
	interestService "anoa.com/localswap/internal/modules/interest/service"

	listingHttp "anoa.com/localswap/internal/modules/listing/delivery/http"
	listingRepo "anoa.com/localswap/internal/modules/listing/repository"
	listingService "anoa.com/localswap/internal/modules/listing/service"

	locationHttp "anoa.com/localswap/internal/modules/location/delivery/http"
	locationRepo "anoa.com/localswap/internal/modules/location/repository"
	locationService "anoa.com/localswap/internal/modules/location/service"

	notiHttp "anoa.com/localswap/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/localswap/internal/modules/notification/repository"
	notifService "anoa.com/localswap/internal/modules/notification/service"

	offerHttp "anoa.com/localswap/internal/modules/offer/delivery/http"
	offerRepo "anoa.com/localswap/internal/modules/offer/repository"
	offerService "anoa.com/localswap/internal/modules/offer/service"

	profileHttp "anoa.com/localswap/internal/modules/profile/delivery/http"
	profileService "anoa.com/localswap/internal/modules/profile/service"

	reportHttp "anoa.com/localswap/internal/modules/report/delivery/http"
	reportRepo "anoa.com/localswap/internal/modules/report/repository"
	reportService "anoa.com/localswap/internal/modules/report/service"

	reviewHttp "anoa.com/localswap/internal/modules/review/delivery/http"
	reviewRepo "anoa.com/localswap/internal/modules/review/repository"
	reviewService "anoa.com/localswap/internal/modules/review/service"

	searchService "anoa.com/localswap/internal/modules/search/service"

	userRepo "anoa.com/localswap/internal/modules/user/repository"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	engine    *gin.Engine
	http      *http.Server
	scheduler *jobs.Scheduler
	cfg       *config.Config
	logger    *zap.Logger
}

// Deps are the process-wide clients built in main.
type Deps struct {
	DB           *gorm.DB
	Redis        *redis.Client
	ImageStorage storage.ImageStorage
	Publisher    events.Publisher
}

func NewServer(cfg *config.Config, deps Deps, logger *zap.Logger) (*Server, error) {
	db := deps.DB

	userRepo := userRepo.NewUserRepository(db)

	meiliClient := meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	listingIndex := searchService.NewMeiliListingIndex(meiliClient, logger)

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	settingsRepository := notifRepo.NewSettingsRepository(db)
	pushRepository := notifRepo.NewPushSubscriptionRepository(db)
	pusher := push.NewWebPushSender(pushRepository, cfg.Push, logger)
	notificationSvc := notifService.NewNotificationService(notificationRepository, settingsRepository, pushRepository, pusher, deps.Redis, cfg.PushTimeout, logger)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, deps.Redis, cfg.AllowedOrigins, logger)

	blockRepo := blockRepo.NewBlockRepository(db)
	blockSvc := blockService.NewService(blockRepo, deps.Publisher, logger)
	blockHandler := blockHttp.NewBlockHandler(blockSvc)

	profileSvc := profileService.NewProfileService(userRepo, blockSvc, deps.ImageStorage, logger)
	profileHandler := profileHttp.NewProfileHandler(profileSvc)

	travelerRepository := locationRepo.NewTravelerRepository(db)
	locationRepo := locationRepo.NewLocationRepository(db)
	locationSvc := locationService.NewService(locationRepo)
	locationHandler := locationHttp.NewLocationHandler(locationSvc)
	travelerSvc := locationService.NewTravelerService(travelerRepository, logger)
	travelerHandler := locationHttp.NewTravelerHandler(travelerSvc)

	listingRepo := listingRepo.NewListingRepository(db)

	interestRepository := interestRepo.NewInterestRepository(db)
	pendingRepository := interestRepo.NewPendingMatchRepository(db)
	interestSvc := interestService.NewInterestService(interestRepository)
	interestHandler := interestHttp.NewInterestHandler(interestSvc)
	matcher := interestService.NewMatcher(interestRepository, pendingRepository, listingRepo, locationRepo, blockSvc, notificationSvc, cfg.MatchConcurrency, logger)
	digest := interestService.NewDigestProcessor(pendingRepository, listingRepo, notificationSvc, logger)

	listingSvc := listingService.NewService(listingRepo, locationRepo, blockSvc, deps.ImageStorage, listingIndex, matcher, deps.Publisher, logger)
	listingHandler := listingHttp.NewListingHandler(listingSvc, logger)

	offerRepository := offerRepo.NewOfferRepository(db)
	offerSvc := offerService.NewService(offerRepository, listingRepo, userRepo, blockSvc, notificationSvc, listingIndex, deps.Publisher, logger)
	offerHandler := offerHttp.NewOfferHandler(offerSvc)

	limiter := ratelimiter.New(deps.Redis)
	chatRepository := chatRepo.NewChatRepository(db)
	chatSvc := chatService.NewService(chatRepository, userRepo, blockSvc, notificationSvc, limiter, cfg.RateLimitMessage, logger)
	chatHandler := chatHttp.NewChatHandler(chatSvc)

	reviewRepository := reviewRepo.NewReviewRepository(db)
	reviewSvc := reviewService.NewService(reviewRepository, offerRepository, notificationSvc, logger)
	reviewHandler := reviewHttp.NewReviewHandler(reviewSvc)

	reportSvc := reportService.NewService(reportRepo.NewReportRepository(db), userRepo, deps.Publisher, logger)
	reportHandler := reportHttp.NewReportHandler(reportSvc)

	quotes := quoteRepo.NewQuoteRepository(db)
	encouragementSvc := encouragementService.NewService(quotes, userRepo, notificationSvc, logger)

	scheduler := jobs.NewScheduler(logger)
	if err := jobs.RegisterAll(scheduler, jobs.Deps{
		Digest:        digest,
		Encouragement: encouragementSvc,
		Notifications: notificationSvc,
		Offers:        offerSvc,
		Travelers:     travelerSvc,
	}); err != nil {
		return nil, err
	}
	cronHandler := jobs.NewCronHandler(scheduler)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	validator.RegisterFieldNames()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/api/notifications/ws"},
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret, cfg.CronSecret)

	api := router.Group("/api")

	// Job triggers for an external scheduler
	cron := api.Group("/cron")
	cron.Use(authMiddleware.RequireCronSecret())
	{
		cron.GET("", cronHandler.ListJobs)
		cron.POST("/:job", cronHandler.RunJob)
	}

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth(), authMiddleware.RequireActiveUser())
	{
		// Profile routes
		protected.GET("/users/me", profileHandler.GetCurrentProfile)
		protected.PUT("/users/me", profileHandler.UpdateProfile)
		protected.GET("/users/:id", profileHandler.GetPublicProfile)

		// Location routes
		protected.GET("/locations", locationHandler.ListLocations)
		protected.POST("/locations", locationHandler.SetLocation)

		// Traveler mode routes
		protected.GET("/traveler", travelerHandler.GetTraveler)
		protected.POST("/traveler", travelerHandler.ActivateTraveler)
		protected.PATCH("/traveler", travelerHandler.UpdateTraveler)
		protected.DELETE("/traveler", travelerHandler.DeactivateTraveler)

		// Listing routes
		protected.POST("/listings", listingHandler.CreateListing)
		protected.GET("/listings/me", listingHandler.ListMyListings)
		protected.GET("/listings/search", listingHandler.SearchListings)
		protected.GET("/listings/:id", listingHandler.GetListing)
		protected.PATCH("/listings/:id", listingHandler.UpdateListing)
		protected.DELETE("/listings/:id", listingHandler.DeleteListing)
		protected.POST("/listings/:id/photos", listingHandler.AddPhotos)
		protected.DELETE("/listings/:id/photos/:photo_id", listingHandler.DeletePhoto)

		// Interest routes
		protected.GET("/interests", interestHandler.ListInterests)
		protected.POST("/interests", interestHandler.AddInterest)
		protected.PUT("/interests", interestHandler.ReplaceInterests)
		protected.DELETE("/interests/:category", interestHandler.RemoveInterest)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/mark-read", notificationHandler.MarkManyAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.DELETE("/notifications", notificationHandler.DeleteNotifications)
		protected.GET("/notifications/settings", notificationHandler.GetSettings)
		protected.PUT("/notifications/settings", notificationHandler.UpdateSettings)
		protected.POST("/notifications/push-subscribe", notificationHandler.Subscribe)
		protected.DELETE("/notifications/push-subscribe", notificationHandler.Unsubscribe)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		// Block routes
		protected.GET("/blocks", blockHandler.ListBlocks)
		protected.POST("/blocks", blockHandler.BlockUser)
		protected.DELETE("/blocks/:user_id", blockHandler.UnblockUser)

		// Report routes
		protected.POST("/reports", reportHandler.CreateReport)

		// Offer routes
		protected.POST("/offers", offerHandler.CreateOffer)
		protected.GET("/offers", offerHandler.ListOffers)
		protected.GET("/offers/:id", offerHandler.GetOffer)
		protected.POST("/offers/:id/accept", offerHandler.AcceptOffer)
		protected.POST("/offers/:id/decline", offerHandler.DeclineOffer)
		protected.POST("/offers/:id/counter", offerHandler.CounterOffer)
		protected.POST("/offers/:id/schedule", offerHandler.ScheduleMeetup)
		protected.POST("/offers/:id/complete", offerHandler.CompleteOffer)

		// Chat routes
		protected.GET("/threads", chatHandler.ListThreads)
		protected.GET("/threads/:id/messages", chatHandler.ListMessages)
		protected.POST("/threads/:id/messages", chatHandler.SendMessage)

		// Review routes
		protected.POST("/reviews", reviewHandler.CreateReview)
		protected.GET("/reviews", reviewHandler.ListReviews)
	}

	return &Server{
		engine: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		scheduler: scheduler,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Run serves HTTP and, when enabled, the in-process job scheduler. It blocks
// until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	if s.cfg.JobsEnabled {
		s.scheduler.Start()
	}

	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.cfg.JobsEnabled {
		s.scheduler.Stop(ctx)
	}
	return s.http.Shutdown(ctx)
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
