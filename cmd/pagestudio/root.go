package main

import (
	"fmt"

	"github.com/ds124wfegd/pagestudio/config"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "pagestudio",
		Short: "Interactive page and photo editing backed by an image processor",
		Long: `pagestudio runs the image processor service and drives edit sessions against it.

An edit session keeps the original upload, the current operations and the last
processed image. Every change is sent to the processor as a full snapshot;
only the newest answer is shown.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return a.init()
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.GetEnv("PAGESTUDIO_CONFIG", ""), "Path to config file (default ./config/config.yaml)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log level")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newEditCmd(a))
	cmd.AddCommand(newTemplatesCmd(a))
	cmd.AddCommand(newArchiveCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func (a *app) init() error {
	v, err := config.LoadConfigFrom(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := config.ParseConfig(v)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	logrus.SetFormatter(new(logrus.JSONFormatter))
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	logrus.SetLevel(level)

	a.cfg = cfg
	return nil
}
