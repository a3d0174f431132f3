package main

import (
    "context"
    "encoding/json"
    "log"
    "math/rand"
    "time"

    "github.com/joho/godotenv"
    "github.com/streadway/amqp"
    "go.uber.org/zap"

    "github.com/callforge/dialer-backend/internal/config"
    "github.com/callforge/dialer-backend/internal/db"
    "github.com/callforge/dialer-backend/internal/logger"
    "github.com/callforge/dialer-backend/internal/queue"
    "github.com/callforge/dialer-backend/internal/repository"
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

    ch, err := amqpConn.Channel()
    if err != nil {
        zlog.Fatal("failed to open a channel", zap.Error(err))
    }
    defer ch.Close()

    q, err := ch.QueueDeclare(
        cfg.DialQueueName, // name
        true,              // durable
        false,             // delete when unused
        false,             // exclusive
        false,             // no-wait
        nil,               // arguments
    )
    if err != nil {
        zlog.Fatal("failed to declare queue", zap.Error(err))
    }

    msgs, err := ch.Consume(
        q.Name,
        "",
        false, // autoAck = false for reliability
        false,
        false,
        false,
        nil,
    )
    if err != nil {
        zlog.Fatal("failed to register consumer", zap.Error(err))
    }

    targetRepo := &repository.TargetRepository{DB: conn}

    jobs := make(chan queue.DialJob)
    worker := service.NewCallWorker(targetRepo, jobs, mockDial, zlog)

    go worker.Start(context.Background())

    zlog.Info("worker running, waiting for dial jobs")
    for d := range msgs {
        var job queue.DialJob
        if err := json.Unmarshal(d.Body, &job); err != nil {
            zlog.Warn("invalid dial job", zap.Error(err))
            d.Ack(false)
            continue
        }

        jobs <- job
        d.Ack(false)
    }
}

// mockDial stands in for real telephony: ~90% of calls succeed.
func mockDial(job queue.DialJob) bool {
    // simulate call duration
    time.Sleep(time.Duration(100+rand.Intn(400)) * time.Millisecond)
    return rand.Intn(100) < 90
}
