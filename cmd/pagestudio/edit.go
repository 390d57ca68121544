package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ds124wfegd/pagestudio/internal/database"
	"github.com/ds124wfegd/pagestudio/internal/editor"
	"github.com/ds124wfegd/pagestudio/internal/export"
	"github.com/ds124wfegd/pagestudio/internal/pkg/kafka"
	"github.com/ds124wfegd/pagestudio/internal/pkg/processing"
	"github.com/ds124wfegd/pagestudio/internal/pkg/storage"
	"github.com/ds124wfegd/pagestudio/internal/script"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newEditCmd(a *app) *cobra.Command {
	var (
		server string
		output string
		share  bool
	)

	cmd := &cobra.Command{
		Use:   "edit <script.yaml>",
		Short: "Run an edit session described by a YAML script",
		Long: `Uploads the script's image, applies each step as an interactive session would
and exports the final processed image.

Every export is kept under export.storage_dir. With output set the image is also
written there; with share set it is published to the share topic.`,
		Example: `  pagestudio edit receipt.yaml
  pagestudio edit scan.yaml --server http://processor:5000 --output out.png --share`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := a.cfg

			s, err := script.Load(args[0])
			if err != nil {
				return err
			}
			if output != "" {
				s.Output = output
			}
			if share {
				s.Share = true
			}
			if s.DisplayWidth == 0 {
				s.DisplayWidth = cfg.Editor.DisplayWidth
			}

			imagePath := s.Image
			if !filepath.IsAbs(imagePath) {
				imagePath = filepath.Join(filepath.Dir(args[0]), imagePath)
			}
			data, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}

			if server != "" {
				cfg.Client.BaseURL = server
			}
			client := processing.New(cfg.Client.BaseURL, cfg.Client.Timeout)

			pages, err := client.Upload(ctx, filepath.Base(imagePath), bytes.NewReader(data))
			if err != nil {
				return err
			}
			if s.Page >= len(pages) {
				return fmt.Errorf("page %d requested, upload produced %d", s.Page, len(pages))
			}

			filename := cfg.Export.Filename
			if s.Output != "" {
				filename = filepath.Base(s.Output)
			}

			sinks := []export.Sink{
				export.NewFileSink(database.NewExportRepository(storage.NewFileStorage(cfg.Export.StorageDir))),
			}
			if s.Share {
				producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ShareTopic)
				defer func() {
					if err := producer.Close(); err != nil {
						logrus.WithError(err).Warn("failed to close share producer")
					}
				}()
				sinks = append(sinks, export.NewShareSink(producer, cfg.Kafka.ShareTopic))
			}

			report, err := script.NewRunner(client, export.NewAdapter(filename), editor.WithRequestTimeout(cfg.Client.Timeout)).Run(ctx, s, pages[s.Page], sinks...)
			if err != nil {
				return err
			}

			if s.Output != "" {
				out := storage.NewFileStorage(filepath.Dir(s.Output))
				if err := out.Save(filepath.Base(s.Output), bytes.NewReader(report.Artifact.Data)); err != nil {
					return err
				}
				report.Locations = append(report.Locations, s.Output)
			}

			ops, err := json.Marshal(report.Operations)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "session:    %s\n", report.SessionID)
			fmt.Fprintf(w, "operations: %s\n", ops)
			fmt.Fprintf(w, "results:    %d\n", report.Published)
			if report.Skipped > 0 {
				fmt.Fprintf(w, "skipped:    %d selection(s)\n", report.Skipped)
			}
			for _, loc := range report.Locations {
				fmt.Fprintf(w, "exported:   %s\n", loc)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Processor base URL (default client.base_url)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Also write the final image to this path")
	cmd.Flags().BoolVar(&share, "share", false, "Publish the final image to the share topic")

	return cmd
}
