package main

import (
	"context"
	"errors"
	"os"
	"time"

	"vye/internal/amqp"
	"vye/internal/cli"
	"vye/internal/log"
)

func main() {
	cfg, logger := cli.Bootstrap()
	logger = logger.WithComponent(log.ComponentEvents)
	if !cfg.EventsEnabled() {
		logger.Error("AMQP_URL is required to consume operation events")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func(context.Context) {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	})

	logger.Info("Consuming operation events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	err = client.ConsumeOperationEvents(ctx, func(ctx context.Context, msg *amqp.OperationCategorizedMessage) error {
		logger.InfoContext(ctx, "Operation categorized",
			log.FieldOperationID, msg.OperationID,
			log.FieldCategoryCode, msg.CategoryCode,
			"at", msg.Timestamp.Format(time.RFC3339))
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	<-done
	logger.Info("Event consumer stopped")
}
