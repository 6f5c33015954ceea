/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/usersoap/usersvc/config"
	"github.com/usersoap/usersvc/internal/events"
	"github.com/usersoap/usersvc/internal/logging"
	"github.com/usersoap/usersvc/internal/mq"
	"github.com/usersoap/usersvc/internal/storage"
	"github.com/usersoap/usersvc/types"
)

// eventsCmd groups commands operating on the user events queue.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect and recover user events",
}

var eventsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Log every event delivered on the user events queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := logging.New(os.Stderr, cfg.Log)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go func() {
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			cancel()
		}()

		queue, err := openQueue(ctx, cfg)
		if err != nil {
			return err
		}
		defer queue.Close()

		logger.Info("watching events", "queue", cfg.Events.Queue)
		err = queue.Subscribe(ctx, cfg.Events.Queue, func(ctx context.Context, msg mq.Message) error {
			var event types.Event
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				logger.WarnContext(ctx, "undecodable event", "message_id", msg.ID, "error", err)
				return nil
			}
			logger.InfoContext(ctx, "event received",
				"message_id", msg.ID,
				"event", event.Event,
				"timestamp", event.Timestamp,
			)
			fmt.Fprintln(cmd.OutOrStdout(), string(msg.Data))
			return nil
		})
		if err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

var eventsReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Republish events spooled after a failed publish",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := logging.New(os.Stderr, cfg.Log)
		ctx := cmd.Context()

		spool, err := storage.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open event spool: %w", err)
		}
		if spool == nil {
			return events.ErrNoSpool
		}

		queue, err := openQueue(ctx, cfg)
		if err != nil {
			return err
		}
		defer queue.Close()

		publisher := events.NewPublisher(queue, cfg.Events, spool, nil, logger)
		replayed, err := publisher.Replay(ctx)
		logger.Info("replay finished", "replayed", replayed)
		return err
	},
}

func openQueue(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	backend, err := mq.NewBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create mq backend: %w", err)
	}
	queue := mq.New(backend)
	if err := queue.Ping(ctx); err != nil {
		_ = queue.Close()
		return nil, fmt.Errorf("connect to %s: %w", cfg.MQBackend, err)
	}
	return queue, nil
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsWatchCmd)
	eventsCmd.AddCommand(eventsReplayCmd)
}
