// Initializing common application configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Processor ProcessorConfig `mapstructure:"processor"`
	Client    ClientConfig    `mapstructure:"client"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Export    ExportConfig    `mapstructure:"export"`
	Editor    EditorConfig    `mapstructure:"editor"`
}

type ServerConfig struct {
	AppVersion   string        `mapstructure:"app_version"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Idle_timeout time.Duration `mapstructure:"idle_timeout"`
	Env          string        `mapstructure:"environment"`
	Mode         string        `mapstructure:"mode"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ProcessorConfig tunes the pixel pipeline behind /process_image and /upload.
type ProcessorConfig struct {
	MaxUploadSize  int64   `mapstructure:"max_upload_size"`
	PageSize       int     `mapstructure:"page_size"`
	EnhanceClip    float64 `mapstructure:"enhance_clip"`
	BoundaryWidth  int     `mapstructure:"boundary_width"`
	MinQuadArea    float64 `mapstructure:"min_quad_area"`
	RequestTimeout int     `mapstructure:"request_timeout"` // в секундах
}

type ClientConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type KafkaConfig struct {
	Brokers      string `mapstructure:"brokers"`
	ShareTopic   string `mapstructure:"share_topic"`
	ShareGroupID string `mapstructure:"share_group_id"`
}

type ExportConfig struct {
	StorageDir string `mapstructure:"storage_dir"`
	Filename   string `mapstructure:"filename"`
}

type EditorConfig struct {
	DisplayWidth float64 `mapstructure:"display_width"`
}

func LoadConfig() (*viper.Viper, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom reads the yaml config from path, or from ./config/config.yaml when path is empty.
// A missing file is not an error: defaults and PAGESTUDIO_* environment variables still apply.
func LoadConfigFrom(path string) (*viper.Viper, error) {

	viperInstance := viper.New()
	setDefaults(viperInstance)

	viperInstance.SetEnvPrefix("pagestudio")
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	if path != "" {
		viperInstance.SetConfigFile(path)
	} else {
		viperInstance.AddConfigPath("./config")
		viperInstance.SetConfigName("config")
		viperInstance.SetConfigType("yaml")
	}

	err := viperInstance.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			logrus.Warn("config file not found, using defaults")
			return viperInstance, nil
		}
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return &c, nil
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.app_version", "1.0.0")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("log.level", "info")

	// Processor defaults
	v.SetDefault("processor.max_upload_size", 10*1024*1024)
	v.SetDefault("processor.page_size", 1080)
	v.SetDefault("processor.enhance_clip", 0.01)
	v.SetDefault("processor.boundary_width", 4)
	v.SetDefault("processor.min_quad_area", 0.1)
	v.SetDefault("processor.request_timeout", 30)

	// Client defaults
	v.SetDefault("client.base_url", "http://localhost:5000")
	v.SetDefault("client.timeout", 30*time.Second)

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", 15*time.Minute)

	// Kafka defaults
	v.SetDefault("kafka.brokers", "localhost:9094")
	v.SetDefault("kafka.share_topic", "image-shares")
	v.SetDefault("kafka.share_group_id", "pagestudio-share-archiver")

	// Export defaults
	v.SetDefault("export.storage_dir", "./storage")
	v.SetDefault("export.filename", "instagram-image.png")

	v.SetDefault("editor.display_width", 540)
}
