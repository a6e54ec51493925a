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
	"clipway/pkg/jwt"
	"clipway/pkg/logger"
	"clipway/pkg/middleware"
	"clipway/pkg/storage"
	authHTTP "clipway/services/auth/internal/controller/http"
	"clipway/services/auth/internal/repo/persistent"
	"clipway/services/auth/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "clipway/services/auth/docs" // Swagger docs
)

type App struct {
	cfg            *config.Config
	log            *logger.Logger
	db             *gorm.DB
	mongoClient    *database.MongoClient
	redisClient    *redis.Client
	uploader       storage.Uploader
	jwtService     *jwt.Service
	httpServer     *http.Server
	cancelSessions func()
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.New()

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		return nil, err
	}

	mongoClient, err := database.NewMongoDB(cfg)
	if err != nil {
		log.Error("Failed to connect to MongoDB: %v", err)
		return nil, err
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v (logout revocation disabled)", err)
		redisClient = nil
	}

	uploader, err := newUploader(cfg)
	if err != nil {
		log.Error("Failed to create storage client: %v (profile pictures disabled)", err)
		uploader = nil
	}

	jwtService := jwt.NewService(cfg.JWTSecret)

	return &App{
		cfg:         cfg,
		log:         log,
		db:          db,
		mongoClient: mongoClient,
		redisClient: redisClient,
		uploader:    uploader,
		jwtService:  jwtService,
	}, nil
}

func newUploader(cfg *config.Config) (storage.Uploader, error) {
	if cfg.StorageDriver == "s3" {
		return storage.NewS3Client(cfg)
	}
	return storage.NewCloudinaryClient(cfg), nil
}

func (a *App) Run() error {
	userRepo := persistent.NewUserRepository(a.db)
	profileRepo := persistent.NewProfileRepository(a.mongoClient.Database)

	authUseCase := usecase.NewAuthUseCase(
		userRepo,
		profileRepo,
		a.jwtService,
		a.redisClient,
		a.uploader,
		a.log,
	)

	// Log session lifecycle for the audit trail. The subscription is
	// cancelled on shutdown so the channel closes and the goroutine exits.
	events, cancelSessions := authUseCase.SubscribeSessions()
	a.cancelSessions = cancelSessions
	go func() {
		for ev := range events {
			a.log.Info("Session %s for user %s", ev.Type, ev.UserID)
		}
	}()

	authHandler := authHTTP.NewAuthHandler(authUseCase)

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
	{
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)
		api.GET("/users/:id", authHandler.GetProfile)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddlewareWithRevocation(a.jwtService, a.redisClient))
		{
			protected.GET("/me", authHandler.Me)
			protected.PUT("/me", authHandler.UpdateMe)
			protected.POST("/me/picture", authHandler.UploadProfilePicture)
			protected.POST("/logout", authHandler.Logout)
		}
	}

	a.httpServer = &http.Server{
		Addr:    ":" + a.cfg.ServerPort,
		Handler: r,
	}

	go func() {
		a.log.Info("Auth service starting on port %s", a.cfg.ServerPort)
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
	a.log.Info("Shutting down auth service...")
}

func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.cancelSessions != nil {
		a.cancelSessions()
	}

	sqlDB, err := a.db.DB()
	if err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Error("Error closing database: %v", err)
		}
	}

	if err := a.mongoClient.Close(ctx); err != nil {
		a.log.Error("Error closing MongoDB: %v", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("Error closing Redis: %v", err)
		}
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Error("Server forced to shutdown: %v", err)
		return err
	}

	a.log.Info("Auth service exited")
	return nil
}
