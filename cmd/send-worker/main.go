package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ToldYaOnce/kx-email-utils/internal/bounces"
	"github.com/ToldYaOnce/kx-email-utils/internal/bulk"
	"github.com/ToldYaOnce/kx-email-utils/internal/config"
	"github.com/ToldYaOnce/kx-email-utils/internal/domain"
	"github.com/ToldYaOnce/kx-email-utils/internal/pkg/logger"
	"github.com/ToldYaOnce/kx-email-utils/internal/queue"
	"github.com/ToldYaOnce/kx-email-utils/internal/ses"
)

// send-worker drains the chunk queue: each message carries one chunk of a
// queued bulk job, which the worker runs through the same immediate send
// pipeline the in-process path uses.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	log.Println("Starting send worker...")

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.RedactEnabled())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mail, err := ses.NewTransport(ctx, cfg.AWS, cfg.SES.FromName)
	if err != nil {
		log.Fatalf("Failed to create SES transport: %v", err)
	}

	bounceStore, err := bounces.NewStore(ctx, cfg.AWS, cfg.Bounces)
	if err != nil {
		log.Fatalf("Failed to create bounce store: %v", err)
	}

	// No queue transport here: a chunk pulled off the queue always runs the
	// immediate path, so a worker can never re-enqueue its own work.
	svc := bulk.NewService(mail, nil, bounceStore, bulk.Settings{
		ImmediateThreshold: cfg.Bulk.ImmediateThreshold,
		ChunkSize:          cfg.Bulk.ChunkSize,
		SendDelay:          cfg.Bulk.SendDelay(),
	})

	sqsClient, err := queue.NewSQSClient(ctx, cfg.AWS)
	if err != nil {
		log.Fatalf("Failed to create SQS client: %v", err)
	}

	workerLog := logger.With("send-worker")
	consumer := queue.NewConsumer(sqsClient, cfg.Queue, func(ctx context.Context, msg domain.ChunkMessage) error {
		job, err := svc.SendBulkEmails(ctx, msg.Recipients, msg.Content(), bulk.Options{
			JobID:    msg.JobID,
			From:     msg.From,
			ReplyTo:  msg.ReplyTo,
			Campaign: msg.Campaign,
			Type:     msg.Type,
		})
		if err != nil {
			return err
		}

		workerLog.Info("chunk processed",
			"job_id", msg.JobID, "chunk", msg.ChunkIndex, "total_chunks", msg.TotalChunks,
			"status", string(job.Status), "success", job.SuccessCount, "failure", job.FailureCount)

		// A fully failed chunk is redelivered whole. Partial failures are
		// final: redelivery would double-send the successes.
		if job.Status == domain.StatusFailed && job.SuccessCount == 0 && len(msg.Recipients) > 0 {
			return fmt.Errorf("all %d sends in chunk %d failed", len(msg.Recipients), msg.ChunkIndex)
		}
		return nil
	})

	done := make(chan error, 1)
	go func() {
		done <- consumer.Run(ctx)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("Received %v, shutting down...", s)
		cancel()
		<-done
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("Consumer stopped: %v", err)
		}
	}

	log.Println("Send worker stopped")
}
