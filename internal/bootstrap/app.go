package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "study-room/internal/handler/http"
	wsHandler "study-room/internal/handler/websocket"
	"study-room/internal/hub"
	gormpersistence "study-room/internal/infra/persistence/gorm"
	"study-room/internal/infra/setup"
	redisstate "study-room/internal/infra/state/redis"
	"study-room/internal/middleware"
	"study-room/internal/service"
	"study-room/internal/tasks"
	"study-room/internal/worker"
)

// Config holds everything loaded from the environment.
type Config struct {
	DBUser        string
	DBPassword    string
	DBHost        string
	DBPort        string
	DBName        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	JWTSecret     string
	ServerPort    string
	LogLevel      string
	AppEnv        string
	KeyPrefix     string

	RateLimitMax    int
	RateLimitWindow time.Duration
	JWTExpiryHours  int
	OTPExpiry       time.Duration
	MembershipTTL   time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// LoadConfig reads configuration from the environment, with .env taking
// effect when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        os.Getenv("DB_PORT"),
		DBName:        os.Getenv("DB_NAME"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		ServerPort:    os.Getenv("SERVER_PORT"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		AppEnv:        os.Getenv("APP_ENV"),
		KeyPrefix:     os.Getenv("REDIS_KEY_PREFIX"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:      os.Getenv("SMTP_FROM"),

		RateLimitMax:    100,
		RateLimitWindow: 1 * time.Second,
		JWTExpiryHours:  24,
		OTPExpiry:       10 * time.Minute,
		MembershipTTL:   12 * time.Hour,
	}

	cfg.RedisDB, _ = strconv.Atoi(os.Getenv("REDIS_DB"))
	cfg.SMTPPort, _ = strconv.Atoi(os.Getenv("SMTP_PORT"))
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}

	if v := os.Getenv("MEMBERSHIP_TTL_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			return nil, fmt.Errorf("invalid MEMBERSHIP_TTL_HOURS %q", v)
		}
		cfg.MembershipTTL = time.Duration(hours) * time.Hour
	}

	if cfg.DBHost == "" {
		cfg.DBHost = "127.0.0.1"
	}
	if cfg.DBPort == "" {
		cfg.DBPort = "3306"
	}
	if cfg.DBName == "" {
		cfg.DBName = "study_room_db"
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "sr:"
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// App carries the wired components for startup and shutdown.
type App struct {
	Config *Config
	Log    *logrus.Logger

	DB          *gorm.DB
	RedisClient *redis.Client
	AsynqClient *asynq.Client
	AsynqServer *worker.WorkerServer
	Hub         *hub.Hub
	HttpServer  *http.Server

	redisClientOpt asynq.RedisClientOpt
	scheduler      *asynq.Scheduler
}

// NewApp loads configuration and wires every component.
func NewApp() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	log.Infof("Logger initialized (Level: %s)", logLevel.String())

	log.Info("Initializing infrastructure...")
	db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	log.Info("Database initialized")

	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database migrated")

	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	log.Info("Redis client initialized")

	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Asynq client initialized")

	log.Info("Initializing repositories...")
	userRepo := gormpersistence.NewGormUserRepository(db)
	profileRepo := gormpersistence.NewGormProfileRepository(db)
	roomRepo := gormpersistence.NewGormRoomRepository(db)
	membershipRepo := gormpersistence.NewGormMembershipRepository(db)
	messageRepo := gormpersistence.NewGormMessageRepository(db)
	otpRepo := gormpersistence.NewGormOTPRepository(db)
	stateRepo := redisstate.NewRedisStateRepository(redisClient, cfg.KeyPrefix)
	log.Info("Repositories initialized")

	log.Info("Initializing services...")
	otpDispatcher := tasks.NewEnqueuer(asynqClient)
	authService, err := service.NewAuthService(
		userRepo, profileRepo, otpRepo, otpDispatcher,
		cfg.JWTSecret, cfg.JWTExpiryHours, cfg.OTPExpiry,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	roomService := service.NewRoomService(roomRepo, membershipRepo, stateRepo)
	messageService := service.NewMessageService(messageRepo, stateRepo)
	log.Info("Services initialized")

	hubInstance := hub.NewHub(roomService, messageService, stateRepo)
	log.Info("Hub initialized")

	log.Info("Initializing handlers...")
	authHandler := httpHandler.NewAuthHandler(authService)
	profileHandler := httpHandler.NewProfileHandler(authService)
	roomHandler := httpHandler.NewRoomHandler(roomService)
	messageHandler := httpHandler.NewMessageHandler(messageService)
	inviteHandler := httpHandler.NewInviteHandler(roomService)
	wsConnHandler := wsHandler.NewWebSocketHandler(hubInstance, roomService)
	log.Info("Handlers initialized")

	var mailer worker.Mailer
	if cfg.SMTPHost != "" {
		mailer = worker.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		mailer = &worker.LogMailer{}
	}
	workerServer := worker.NewWorkerServer(redisClientOpt, otpRepo, membershipRepo, mailer, log)
	log.Info("Worker server initialized")

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))

	router.Use(func(c *gin.Context) {
		allowedOrigin := os.Getenv("CORS_ALLOWED_ORIGIN")
		if allowedOrigin == "" {
			allowedOrigin = "http://localhost:3000"
		}
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
	router.Use(middleware.RateLimit(stateRepo, cfg.RateLimitMax, cfg.RateLimitWindow))

	api := router.Group("/api")
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/verify-otp", authHandler.VerifyOTP)
	}
	api.POST("/send-otp", authHandler.SendOTP)
	api.GET("/invites/:roomId/:code", inviteHandler.Resolve)

	profileRoutes := api.Group("/profile").Use(middleware.Auth(cfg.JWTSecret))
	{
		profileRoutes.GET("", profileHandler.Get)
		profileRoutes.PUT("", profileHandler.Update)
	}
	roomRoutes := api.Group("/rooms").Use(middleware.Auth(cfg.JWTSecret))
	{
		roomRoutes.GET("", roomHandler.List)
		roomRoutes.POST("", roomHandler.Create)
		roomRoutes.POST("/join", roomHandler.Join)
		roomRoutes.GET("/slug/:slug", roomHandler.GetBySlug)
		roomRoutes.POST("/:roomId/leave", roomHandler.Leave)
		roomRoutes.GET("/:roomId/messages", messageHandler.History)
		roomRoutes.POST("/:roomId/messages", messageHandler.Send)
	}
	messageRoutes := api.Group("/messages").Use(middleware.Auth(cfg.JWTSecret))
	{
		messageRoutes.PUT("/:id", messageHandler.Edit)
		messageRoutes.DELETE("/:id", messageHandler.Delete)
	}
	wsRoutes := router.Group("/ws").Use(middleware.Auth(cfg.JWTSecret))
	{
		wsRoutes.GET("/room/:roomId", wsConnHandler.HandleConnection)
	}
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	log.Info("Router setup complete")

	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	app := &App{
		Config:         cfg,
		Log:            log,
		DB:             db,
		RedisClient:    redisClient,
		AsynqClient:    asynqClient,
		AsynqServer:    workerServer,
		Hub:            hubInstance,
		HttpServer:     httpServer,
		redisClientOpt: redisClientOpt,
	}
	log.Info("Application assembled successfully")

	return app, nil
}

// Start launches the hub, the worker, the periodic scheduler and the
// HTTP server.
func (a *App) Start() {
	a.Log.Info("Starting application background routines...")
	go a.Hub.Run()
	a.Log.Info("Hub routine started")

	go a.AsynqServer.Start()
	a.Log.Info("Asynq worker server routine started")

	a.registerPeriodicTasks()

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

func (a *App) registerPeriodicTasks() {
	scheduler := asynq.NewScheduler(a.redisClientOpt, &asynq.SchedulerOpts{})

	cleanupTask := tasks.NewOTPCleanupTask()
	if entryID, err := scheduler.Register("@every 5m", cleanupTask); err != nil {
		a.Log.Errorf("Could not register periodic OTP cleanup task: %v", err)
	} else {
		a.Log.Infof("Periodic OTP cleanup registered (EntryID: %s)", entryID)
	}

	sweepTask, err := tasks.NewMembershipSweepTask(a.Config.MembershipTTL)
	if err != nil {
		a.Log.Errorf("Failed to build membership sweep task: %v", err)
	} else if entryID, err := scheduler.Register("@every 5m", sweepTask); err != nil {
		a.Log.Errorf("Could not register periodic membership sweep task: %v", err)
	} else {
		a.Log.Infof("Periodic membership sweep registered (EntryID: %s)", entryID)
	}

	a.scheduler = scheduler
	go func() {
		a.Log.Info("Asynq scheduler starting...")
		if err := scheduler.Run(); err != nil {
			if !errors.Is(err, asynq.ErrServerClosed) {
				a.Log.Errorf("Asynq scheduler Run() failed: %v", err)
			} else {
				a.Log.Info("Asynq scheduler stopped.")
			}
		}
	}()
}

// Shutdown tears components down in dependency order.
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	if a.Hub != nil {
		a.Hub.StopAllSubscriptions()
	}

	if a.scheduler != nil {
		a.scheduler.Shutdown()
	}

	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}

	a.Log.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		} else {
			a.Log.Info("Asynq client closed.")
		}
	}

	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		} else {
			a.Log.Info("Redis connection closed.")
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// LoggerMiddleware logs each request with latency and status.
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		if errorMessage != "" {
			entry.Error(errorMessage)
		} else {
			switch {
			case statusCode >= 500:
				entry.Error("Server error")
			case statusCode >= 400:
				entry.Warn("Client error")
			default:
				entry.Info("Request handled")
			}
		}
	}
}
