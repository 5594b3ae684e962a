package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forensia/internal/config"
	"forensia/internal/db"
	"forensia/internal/links"
	"forensia/internal/narrative"
	"forensia/internal/queue"
	"forensia/internal/report"
	"forensia/internal/storage"
	"forensia/internal/util"
	"forensia/pkg/logger"
	"forensia/pkg/logger/console"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/semaphore"

	_ "github.com/lib/pq"
)

const reconcileInterval = time.Hour

func main() {
	util.LoadEnv()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: cfg.Debug,
	})
	logger.Init(consoleLogger)

	pgConn, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()

	objects, err := storage.New(ctx, cfg.Objects)
	if err != nil {
		logger.Fatal("Failed to connect to object storage", "err", err)
	}

	queries := db.New(pgConn)
	linker := links.New(queries)
	gateway := narrative.New(cfg.Narrative)
	orch := report.NewOrchestrator(queries, linker, gateway, objects, cfg.Report.LogoKey)

	conn := queue.Dial(cfg.Queue)
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.Setup(ch); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	// Repair any links a crashed writer left half-done, then keep scanning
	// in the background.
	go func() {
		runReconcile(ctx, linker)
		ticker := time.NewTicker(reconcileInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runReconcile(ctx, linker)
			}
		}
	}()

	maxBuilds := cfg.Report.MaxConcurrentBuilds
	if maxBuilds < 1 {
		maxBuilds = 1
	}

	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(int(maxBuilds), 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.ReportQueue,
		"report_worker",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.ReportQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.ReportQueue, "parallel_builds", maxBuilds)

	// Compilations are memory-heavy, so in-flight jobs are bounded.
	sem := semaphore.NewWeighted(maxBuilds)

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Info("Message channel closed")
					return
				}
				if err := sem.Acquire(ctx, 1); err != nil {
					return
				}
				go func(msg amqp.Delivery) {
					defer sem.Release(1)
					handleMessage(ctx, orch, consumerCh, msg)
				}(msg)
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}

func handleMessage(ctx context.Context, orch *report.Orchestrator, ch *amqp.Channel, msg amqp.Delivery) {
	startTime := time.Now()
	logger.Info("Received message", "queue", queue.ReportQueue)

	err := queue.ProcessReportMessage(ctx, orch, msg.Body)
	if err != nil {
		logger.Error("Error processing message", "queue", queue.ReportQueue, "err", err)
		if queue.IsPermanent(err) {
			// Retrying cannot fix a missing entity or a denied request.
			if ackErr := msg.Ack(false); ackErr != nil {
				logger.Error("Failed to ack message", "err", ackErr)
			}
			return
		}
		queue.HandleFailure(ch, msg, queue.ReportQueue)
		return
	}

	if err := msg.Ack(false); err != nil {
		logger.Error("Failed to ack message", "err", err)
	}
	logger.Info("Message processed successfully", "queue", queue.ReportQueue, "duration", time.Since(startTime).Round(time.Millisecond))
}

func runReconcile(ctx context.Context, linker *links.Linker) {
	repaired, err := linker.Reconcile(ctx)
	if err != nil {
		logger.Error("Reference reconcile failed", "err", err)
		return
	}
	if repaired > 0 {
		logger.Info("Reference reconcile repaired links", "count", repaired)
	}
}
