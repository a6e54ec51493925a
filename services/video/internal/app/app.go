package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clipway/pkg/cache"
	"clipway/pkg/config"
	"clipway/pkg/database"
	"clipway/pkg/geocode"
	"clipway/pkg/jwt"
	"clipway/pkg/logger"
	"clipway/pkg/middleware"
	"clipway/pkg/moderation"
	"clipway/pkg/queue"
	"clipway/pkg/storage"
	videoHTTP "clipway/services/video/internal/controller/http"
	"clipway/services/video/internal/repo/persistent"
	"clipway/services/video/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "clipway/services/video/docs" // Swagger docs
)

const draftMediaDir = "/tmp/clipway-drafts"

type App struct {
	cfg         *config.Config
	log         *logger.Logger
	mongoClient *database.MongoClient
	redisClient *redis.Client
	queueClient *queue.Client
	uploader    storage.Uploader
	jwtService  *jwt.Service
	httpServer  *http.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.New()

	mongoClient, err := database.NewMongoDB(cfg)
	if err != nil {
		log.Error("Failed to connect to MongoDB: %v", err)
		return nil, err
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v", err)
		return nil, err
	}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Error("Failed to connect to RabbitMQ: %v (continuing without queue)", err)
		queueClient = nil
	}

	uploader, err := newUploader(cfg)
	if err != nil {
		log.Error("Failed to create storage client: %v", err)
		return nil, err
	}

	return &App{
		cfg:         cfg,
		log:         log,
		mongoClient: mongoClient,
		redisClient: redisClient,
		queueClient: queueClient,
		uploader:    uploader,
		jwtService:  jwt.NewService(cfg.JWTSecret),
	}, nil
}

func newUploader(cfg *config.Config) (storage.Uploader, error) {
	if cfg.StorageDriver == "s3" {
		return storage.NewS3Client(cfg)
	}
	return storage.NewCloudinaryClient(cfg), nil
}

func (a *App) Run() error {
	videoRepo := persistent.NewVideoRepository(a.mongoClient.Database)
	profileRepo := persistent.NewProfileRepository(a.mongoClient.Database)
	moderationRepo := persistent.NewModerationAuditRepository(a.mongoClient.Database)

	geocoder := geocode.NewClient(a.cfg)
	gate := moderation.NewClient(a.cfg)

	draftUseCase := usecase.NewDraftUseCase(profileRepo, geocoder, a.log)
	publishUseCase := usecase.NewPublishUseCase(
		draftUseCase,
		a.uploader,
		gate,
		videoRepo,
		profileRepo,
		moderationRepo,
		a.redisClient,
		a.queueClient,
		a.log,
	)
	videoUseCase := usecase.NewVideoUseCase(videoRepo, profileRepo, a.redisClient, a.log)

	draftHandler := videoHTTP.NewDraftHandler(draftUseCase, publishUseCase, draftMediaDir, a.log)
	videoHandler := videoHTTP.NewVideoHandler(videoUseCase)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddlewareWithRevocation(a.jwtService, a.redisClient))
	api.Use(middleware.RateLimitMiddleware(middleware.NewRedisLimiter(a.redisClient, 100, time.Minute)))
	{
		api.POST("/drafts", draftHandler.CreateDraft)
		api.GET("/drafts/:id", draftHandler.GetDraft)
		api.DELETE("/drafts/:id", draftHandler.DiscardDraft)
		api.POST("/drafts/:id/hashtags", draftHandler.AddHashtag)
		api.DELETE("/drafts/:id/hashtags/:tag", draftHandler.RemoveHashtag)
		api.POST("/drafts/:id/mentions", draftHandler.AddMention)
		api.GET("/drafts/:id/mentions/suggestions", draftHandler.MentionSuggestions)
		api.DELETE("/drafts/:id/mentions/:handle", draftHandler.RemoveMention)
		api.PUT("/drafts/:id/caption", draftHandler.UpdateCaption)
		api.POST("/drafts/:id/location", draftHandler.SetLocation)
		api.POST("/drafts/:id/publish", draftHandler.Publish)
		api.GET("/drafts/:id/progress", draftHandler.Progress)

		api.GET("/videos/:id", videoHandler.GetVideo)
		api.GET("/users/:id/videos", videoHandler.GetUserVideos)
	}

	a.httpServer = &http.Server{
		Addr:    ":" + a.cfg.ServerPort,
		Handler: r,
	}

	go func() {
		a.log.Info("Video service starting on port %s", a.cfg.ServerPort)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	return nil
}

func (a *App) Wait() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.log.Info("Shutting down video service...")
}

func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.mongoClient.Close(ctx); err != nil {
		a.log.Error("Error closing MongoDB: %v", err)
	}

	if err := a.redisClient.Close(); err != nil {
		a.log.Error("Error closing Redis: %v", err)
	}

	if a.queueClient != nil {
		if err := a.queueClient.Close(); err != nil {
			a.log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Error("Server forced to shutdown: %v", err)
		return err
	}

	a.log.Info("Video service exited")
	return nil
}
