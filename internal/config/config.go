package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	NATS        NATSConfig        `yaml:"nats"`
	MinIO       MinIOConfig       `yaml:"minio"`
	Vision      VisionConfig      `yaml:"vision"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Attendance  AttendanceConfig  `yaml:"attendance"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type VisionConfig struct {
	ModelsDir          string  `yaml:"models_dir"`
	DetectionThreshold float64 `yaml:"detection_threshold"`
}

// RecognitionConfig tunes the matcher and the gallery cache. The tolerance
// ladder is tried in ascending order; the first rung that admits the closest
// candidate decides the match.
type RecognitionConfig struct {
	ToleranceLadder []float64     `yaml:"tolerance_ladder"`
	GalleryTTL      time.Duration `yaml:"gallery_ttl"`
}

// AttendanceConfig holds the daily time-window policy. Times are "HH:MM"
// in the server's local zone.
type AttendanceConfig struct {
	MorningMinTime         string `yaml:"morning_min_time"`
	MorningLateThreshold   string `yaml:"morning_late_threshold"`
	AfternoonLateThreshold string `yaml:"afternoon_late_threshold"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Vision.DetectionThreshold == 0 {
		cfg.Vision.DetectionThreshold = 0.5
	}
	if len(cfg.Recognition.ToleranceLadder) == 0 {
		cfg.Recognition.ToleranceLadder = []float64{0.6, 0.65, 0.7}
	}
	if cfg.Recognition.GalleryTTL == 0 {
		cfg.Recognition.GalleryTTL = 300 * time.Second
	}
	if cfg.Attendance.MorningMinTime == "" {
		cfg.Attendance.MorningMinTime = "05:00"
	}
	if cfg.Attendance.MorningLateThreshold == "" {
		cfg.Attendance.MorningLateThreshold = "08:01"
	}
	if cfg.Attendance.AfternoonLateThreshold == "" {
		cfg.Attendance.AfternoonLateThreshold = "13:01"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FP_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FP_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("FP_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FP_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FP_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("FP_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FP_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FP_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("FP_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("FP_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("FP_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("FP_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("FP_MODELS_DIR"); v != "" {
		cfg.Vision.ModelsDir = v
	}
	if v := os.Getenv("FP_GALLERY_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Recognition.GalleryTTL = d
		}
	}
}
