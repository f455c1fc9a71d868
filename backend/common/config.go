package common

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinBcryptCost is the lowest password hashing cost the server accepts.
const MinBcryptCost = 12

var Version = "v0.0.0"

// S3Config points the blob store at an S3-compatible bucket.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Config is loaded once at startup and passed by value afterwards.
type Config struct {
	Port       int
	PublicHost string
	DataDir    string

	SQLDSN     string
	SQLitePath string

	JWTSecret  string
	BcryptCost int

	MaxUsers        int
	MaxFilesPerUser int
	MaxBatchFiles   int
	MaxUploadMB     int

	GuestUserID       string
	OwnerOnlyDownload bool

	RedisConnString string

	BlobDriver string
	S3         S3Config

	EnableGzip         bool
	ReconcileOnStart   bool
	RateLimitPerMinute int

	ConfigPath string
}

// DefaultConfig returns the development defaults.
func DefaultConfig() Config {
	return Config{
		Port:               3000,
		PublicHost:         "http://localhost",
		DataDir:            ".",
		SQLitePath:         "data/filebox.db",
		BcryptCost:         MinBcryptCost,
		MaxUsers:           10,
		MaxFilesPerUser:    20,
		MaxBatchFiles:      10,
		MaxUploadMB:        32,
		BlobDriver:         BlobDriverLocal,
		S3:                 S3Config{Region: "us-east-1"},
		EnableGzip:         true,
		RateLimitPerMinute: 30,
	}
}

const (
	BlobDriverLocal = "local"
	BlobDriverS3    = "s3"
)

// Options are the command-line switches that do not end up in Config.
type Options struct {
	PrintVersion bool
	PrintHelp    bool
}

// LoadConfig layers defaults, the ini config file, the environment and
// finally command-line flags.
func LoadConfig(args []string) (Config, Options, error) {
	cfg := DefaultConfig()
	var opts Options

	fs := flag.NewFlagSet("filebox", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	port := fs.Int("port", 0, "the listening port")
	configPath := fs.String("config", "", "path to the ini config file")
	fs.BoolVar(&opts.PrintVersion, "version", false, "print version and exit")
	fs.BoolVar(&opts.PrintHelp, "help", false, "print help and exit")
	if err := fs.Parse(args); err != nil {
		return cfg, opts, fmt.Errorf("parse flags: %w", err)
	}

	path := *configPath
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		var err error
		path, err = defaultConfigPath()
		if err != nil {
			return cfg, opts, err
		}
	}
	if err := loadConfigFile(&cfg, path); err != nil {
		return cfg, opts, err
	}
	cfg.ConfigPath = path

	if err := applyConfigMap(&cfg, environConfigMap()); err != nil {
		return cfg, opts, fmt.Errorf("apply environment: %w", err)
	}

	if *port != 0 {
		cfg.Port = *port
	}

	if err := cfg.Validate(); err != nil {
		return cfg, opts, err
	}
	return cfg, opts, nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.BcryptCost < MinBcryptCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", MinBcryptCost, bcrypt.MaxCost, c.BcryptCost)
	}
	if c.MaxUsers <= 0 || c.MaxFilesPerUser <= 0 || c.MaxBatchFiles <= 0 {
		return fmt.Errorf("quotas must be positive")
	}
	switch c.BlobDriver {
	case BlobDriverLocal:
	case BlobDriverS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when BLOB_DRIVER=s3")
		}
	default:
		return fmt.Errorf("unknown BLOB_DRIVER %q", c.BlobDriver)
	}
	return nil
}

// StorageRoot is the directory backing the public /storage prefix.
func (c Config) StorageRoot() string {
	return filepath.Join(c.DataDir, StorageDir)
}

// MaxUploadBytes bounds the multipart body kept in memory.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func environConfigMap() map[string]string {
	configMap := make(map[string]string)
	for _, key := range configKeys {
		if value, ok := os.LookupEnv(key); ok {
			configMap[key] = strings.TrimSpace(value)
		}
	}
	return configMap
}

func PrintHelp() {
	fmt.Println("filebox " + Version + " - personal file storage")
	fmt.Println("Usage: filebox [-port <port>] [-config <path>] [-version] [-help]")
}
