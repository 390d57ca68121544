package main

import (
	"context"

	"github.com/ds124wfegd/pagestudio/internal/database"
	"github.com/ds124wfegd/pagestudio/internal/export"
	"github.com/ds124wfegd/pagestudio/internal/pkg/kafka"
	"github.com/ds124wfegd/pagestudio/internal/pkg/storage"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newArchiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Consume the share topic and store shared images",
		Long: `Reads share messages published by "pagestudio edit --share" and stores each
image with its metadata under export.storage_dir.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			repo := database.NewExportRepository(storage.NewFileStorage(cfg.Export.StorageDir))
			archiver := export.NewArchiver(repo)

			reader := kafka.NewReader(cfg.Kafka.Brokers, cfg.Kafka.ShareTopic, cfg.Kafka.ShareGroupID)
			defer reader.Close()

			logrus.WithFields(logrus.Fields{
				"brokers": cfg.Kafka.Brokers,
				"topic":   cfg.Kafka.ShareTopic,
			}).Info("share archiver started")

			return kafka.Consume(cmd.Context(), reader, func(ctx context.Context, msg kafkago.Message) error {
				return archiver.HandleMessage(ctx, msg.Value)
			})
		},
	}
}
