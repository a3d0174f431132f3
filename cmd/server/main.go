package main

import (
    "log"
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "github.com/joho/godotenv"
    "github.com/streadway/amqp"
    "go.uber.org/zap"

    "github.com/callforge/dialer-backend/internal/clock"
    "github.com/callforge/dialer-backend/internal/config"
    "github.com/callforge/dialer-backend/internal/controller"
    "github.com/callforge/dialer-backend/internal/db"
    "github.com/callforge/dialer-backend/internal/handler"
    "github.com/callforge/dialer-backend/internal/logger"
    "github.com/callforge/dialer-backend/internal/queue"
    "github.com/callforge/dialer-backend/internal/repository"
    "github.com/callforge/dialer-backend/internal/script"
    "github.com/callforge/dialer-backend/internal/service"
)

func main() {
    if err := godotenv.Load(); err != nil {
        log.Println("no .env file found, relying on OS environment variables")
    }

    cfg, err := config.Load()
    if err != nil {
        log.Fatalf("failed to load config: %v", err)
    }

    zlog, err := logger.New(cfg.ServiceEnvironment)
    if err != nil {
        log.Fatalf("failed to build logger: %v", err)
    }
    defer zlog.Sync()

    conn, err := db.Open(cfg.DSN())
    if err != nil {
        zlog.Fatal("failed to connect to DB", zap.Error(err))
    }
    defer conn.Close()

    amqpConn, err := amqp.Dial(cfg.AMQPURL)
    if err != nil {
        zlog.Fatal("failed to connect to RabbitMQ", zap.Error(err))
    }
    defer amqpConn.Close()

    publisher, err := queue.NewAMQPPublisher(amqpConn, cfg.DialQueueName)
    if err != nil {
        zlog.Fatal("failed to set up dial queue", zap.Error(err))
    }
    defer publisher.Close()

    campaignRepo := &repository.CampaignRepository{DB: conn}
    targetRepo := &repository.TargetRepository{DB: conn}
    testDispatchRepo := &repository.TestDispatchRepository{DB: conn}
    locker := &repository.AdvisoryLocker{DB: conn}

    clk := clock.System()

    var generator script.Generator = script.TemplateGenerator{}
    if cfg.ScriptGatewayURL != "" {
        generator = script.NewGatewayGenerator(cfg.ScriptGatewayURL, time.Duration(cfg.ScriptTimeoutSec)*time.Second)
    }

    dispatcher := &service.DispatchService{
        Targets: targetRepo,
        Scripts: generator,
        Clock:   clk,
        Logger:  zlog,
    }

    lifecycle := &service.LifecycleService{
        Campaigns:  campaignRepo,
        Targets:    targetRepo,
        Locker:     locker,
        Dispatcher: dispatcher,
        Publisher:  publisher,
        Clock:      clk,
        Logger:     zlog,
    }

    limiter := &service.TestCallLimiter{
        Repo:   testDispatchRepo,
        Clock:  clk,
        Limit:  cfg.TestCallHourlyLimit,
        Window: time.Duration(cfg.TestCallWindowMin) * time.Minute,
    }

    campaignService := &service.CampaignService{
        Campaigns: campaignRepo,
        Targets:   targetRepo,
        Progress:  &service.ProgressService{Targets: targetRepo},
        Limiter:   limiter,
        Publisher: publisher,
        Clock:     clk,
        Logger:    zlog,
    }

    campaignController := &controller.CampaignController{
        Lifecycle:       lifecycle,
        CampaignService: campaignService,
        Logger:          zlog,
    }

    campaignHandler := handler.NewCampaignHandler(campaignService)

    r := chi.NewRouter()
    r.Use(middleware.RequestID)
    r.Use(middleware.Recoverer)
    r.Use(middleware.Timeout(time.Duration(cfg.StoreTimeoutSec+cfg.ScriptTimeoutSec) * time.Second))

    // Campaign routes
    r.Post("/campaigns", campaignHandler.CreateCampaignHandler)
    r.Get("/campaigns", campaignHandler.ListCampaignsHandler)
    r.Get("/campaigns/{id}", campaignHandler.GetCampaignHandler)
    r.Post("/campaigns/{id}/targets", campaignHandler.AddTargetsHandler)
    r.Post("/campaigns/{id}/start", campaignHandler.StartCampaignHandler)
    r.Post("/campaigns/{id}/pause", campaignHandler.PauseCampaignHandler)

    // Engine routes
    r.Post("/campaigns/{id}/tick", campaignController.Tick)
    r.Post("/campaigns/{id}/test-call", campaignController.TestCall)

    zlog.Info("server running", zap.String("port", cfg.ServiceAPIPort))
    if err := http.ListenAndServe(":"+cfg.ServiceAPIPort, r); err != nil {
        zlog.Fatal("server stopped", zap.Error(err))
    }
}
