// Package bootstrap wires every component together into a runnable App:
// configuration, storage, the publisher, the token and auth-provider
// clients, the Room Service, the HTTP and WebSocket surfaces, and the
// asynq worker server plus its periodic stale-room sweep.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"roomsplit/internal/authprovider"
	httphandler "roomsplit/internal/handler/http"
	wshandler "roomsplit/internal/handler/websocket"
	gormpersistence "roomsplit/internal/infra/persistence/gorm"
	"roomsplit/internal/infra/setup"
	"roomsplit/internal/middleware"
	"roomsplit/internal/publisher"
	"roomsplit/internal/service"
	"roomsplit/internal/tasks"
	"roomsplit/internal/token"
	"roomsplit/internal/worker"
)

// App holds every long-lived component, for Start/Shutdown to drive.
type App struct {
	Config      setup.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	AsynqClient *asynq.Client
	Worker      *worker.WorkerServer
	HTTPServer  *http.Server

	redisOpt  asynq.RedisClientOpt
	scheduler *asynq.Scheduler
}

// NewApp loads configuration and wires every component. It does not start
// any network listener or background routine; call Start for that.
func NewApp() (*App, error) {
	cfg, err := setup.Load()
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load config: %w", err)
	}

	db, err := setup.OpenDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open db: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("bootstrap: migrate db: %w", err)
	}

	redisClient, err := setup.OpenRedis(cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open redis: %w", err)
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.PublisherKey, Password: cfg.PublisherSecret}
	asynqClient := asynq.NewClient(redisOpt)

	roomRepo := gormpersistence.NewGormRoomRepository(db)
	userRepo := gormpersistence.NewGormUserRepository(db)

	var pub publisher.Publisher
	switch cfg.PublisherBackend {
	case "redis":
		pub = publisher.NewRedisPublisher(redisClient, cfg.PublisherCluster)
	default:
		pub = publisher.NewBroker()
	}

	tokens, err := token.NewService(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: create token service: %w", err)
	}
	authProvider := authprovider.NewHTTPClient(cfg.AuthProviderBaseURL, cfg.AuthProviderAppID, cfg.AuthProviderSecret)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	rooms := service.NewRoomService(roomRepo, userRepo, pub, rng, service.RoomServiceOptions{EnableHiddenPairing: true})

	roomHandler := httphandler.NewRoomHandler(rooms)
	loginHandler := httphandler.NewLoginHandler(authProvider, tokens)
	gateway := wshandler.NewGateway(pub)

	reaper := worker.NewStaleRoomReaperHandler(roomRepo, rooms, cfg.StaleRoomTTL)
	workerServer := worker.NewWorkerServer(redisOpt, reaper, logrus.StandardLogger())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.Use(middleware.RateLimit(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow))

	router.POST("/login", loginHandler.Login)
	httphandler.RegisterRoutes(router, roomHandler, tokens)
	wshandler.RegisterRoute(router, gateway)
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	return &App{
		Config:      cfg,
		DB:          db,
		RedisClient: redisClient,
		AsynqClient: asynqClient,
		Worker:      workerServer,
		HTTPServer:  httpServer,
		redisOpt:    redisOpt,
	}, nil
}

// Start launches the HTTP server, the asynq worker, and the periodic
// stale-room sweep scheduler, each in its own goroutine.
func (a *App) Start() {
	go a.Worker.Start()
	a.registerPeriodicTasks()

	go func() {
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("bootstrap: http server exited")
		}
	}()
}

func (a *App) registerPeriodicTasks() {
	a.scheduler = asynq.NewScheduler(a.redisOpt, &asynq.SchedulerOpts{})

	payload, err := tasks.NewStaleRoomSweepTask()
	if err != nil {
		logrus.WithError(err).Error("bootstrap: could not build stale room sweep task")
		return
	}
	task := asynq.NewTask(tasks.TypeStaleRoomSweep, payload)

	entryID, err := a.scheduler.Register("@every 5m", task, asynq.Queue("default"))
	if err != nil {
		logrus.WithError(err).Error("bootstrap: could not register stale room sweep")
		return
	}
	logrus.WithField("entry_id", entryID).Info("bootstrap: stale room sweep registered")

	// Enqueue one sweep immediately through the client so a freshly
	// started process doesn't wait a full interval for its first run.
	if _, err := a.AsynqClient.Enqueue(asynq.NewTask(tasks.TypeStaleRoomSweep, payload), asynq.Queue("default")); err != nil {
		logrus.WithError(err).Warn("bootstrap: could not enqueue initial stale room sweep")
	}

	go func() {
		if err := a.scheduler.Run(); err != nil {
			logrus.WithError(err).Error("bootstrap: scheduler stopped")
		}
	}()
}

// Shutdown drains and closes every component in dependency order.
func (a *App) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("bootstrap: http server shutdown error")
	}

	if a.scheduler != nil {
		a.scheduler.Shutdown()
	}
	a.Worker.Shutdown()

	if err := a.AsynqClient.Close(); err != nil {
		logrus.WithError(err).Error("bootstrap: asynq client close error")
	}
	if err := a.RedisClient.Close(); err != nil {
		logrus.WithError(err).Error("bootstrap: redis client close error")
	}
}

// requestLogger is per-request access logging structured through logrus.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"client_ip":  c.ClientIP(),
		}).Info("request handled")
	}
}
