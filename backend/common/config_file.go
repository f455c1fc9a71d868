package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/ini.v1"
)

const defaultConfigTemplate = "PORT=3000\nSQLITE_PATH=data/filebox.db\nENABLE_GZIP=true\nJWT_SECRET=%s\n"

var configKeys = []string{
	"PORT", "PUBLIC_HOST", "DATA_DIR", "SQL_DSN", "SQLITE_PATH", "JWT_SECRET",
	"BCRYPT_COST", "MAX_USERS", "MAX_FILES_PER_USER", "MAX_BATCH_FILES",
	"MAX_UPLOAD_MB", "GUEST_USER_ID", "OWNER_ONLY_DOWNLOAD", "REDIS_CONN_STRING",
	"BLOB_DRIVER", "S3_BUCKET", "S3_REGION", "S3_ENDPOINT", "S3_ACCESS_KEY",
	"S3_SECRET_KEY", "ENABLE_GZIP", "RECONCILE_ON_START", "RATE_LIMIT_PER_MINUTE",
}

func defaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "filebox", "config.ini"), nil
}

func loadConfigFile(cfg *Config, configPath string) error {
	if err := ensureConfigFile(configPath); err != nil {
		return err
	}

	configMap, err := parseIniConfig(configPath)
	if err != nil {
		return err
	}

	if err := applyConfigMap(cfg, configMap); err != nil {
		return fmt.Errorf("apply config file %s: %w", configPath, err)
	}

	return nil
}

// ensureConfigFile writes a starter file with a random JWT secret on first run.
func ensureConfigFile(configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory %s: %w", configDir, err)
	}

	configFile, err := os.OpenFile(configPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return fmt.Errorf("create config file %s: %w", configPath, err)
	}
	defer configFile.Close()

	if _, err := configFile.WriteString(fmt.Sprintf(defaultConfigTemplate, uuid.New().String())); err != nil {
		return fmt.Errorf("write default config file %s: %w", configPath, err)
	}

	return nil
}

func parseIniConfig(path string) (map[string]string, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("parse ini config %s: %w", path, err)
	}

	configMap := make(map[string]string)
	for _, section := range cfg.Sections() {
		for _, key := range section.Keys() {
			configKey := strings.ToUpper(strings.TrimSpace(key.Name()))
			if configKey == "" {
				continue
			}
			configMap[configKey] = strings.TrimSpace(key.Value())
		}
	}

	return configMap, nil
}

func applyConfigMap(cfg *Config, configMap map[string]string) error {
	stringFields := map[string]*string{
		"PUBLIC_HOST":       &cfg.PublicHost,
		"DATA_DIR":          &cfg.DataDir,
		"SQL_DSN":           &cfg.SQLDSN,
		"SQLITE_PATH":       &cfg.SQLitePath,
		"JWT_SECRET":        &cfg.JWTSecret,
		"GUEST_USER_ID":     &cfg.GuestUserID,
		"REDIS_CONN_STRING": &cfg.RedisConnString,
		"BLOB_DRIVER":       &cfg.BlobDriver,
		"S3_BUCKET":         &cfg.S3.Bucket,
		"S3_REGION":         &cfg.S3.Region,
		"S3_ENDPOINT":       &cfg.S3.Endpoint,
		"S3_ACCESS_KEY":     &cfg.S3.AccessKey,
		"S3_SECRET_KEY":     &cfg.S3.SecretKey,
	}
	for key, field := range stringFields {
		if configValue, ok := configMap[key]; ok && configValue != "" {
			*field = configValue
		}
	}

	intFields := map[string]*int{
		"PORT":                  &cfg.Port,
		"BCRYPT_COST":           &cfg.BcryptCost,
		"MAX_USERS":             &cfg.MaxUsers,
		"MAX_FILES_PER_USER":    &cfg.MaxFilesPerUser,
		"MAX_BATCH_FILES":       &cfg.MaxBatchFiles,
		"MAX_UPLOAD_MB":         &cfg.MaxUploadMB,
		"RATE_LIMIT_PER_MINUTE": &cfg.RateLimitPerMinute,
	}
	for key, field := range intFields {
		configValue, ok := configMap[key]
		if !ok || configValue == "" {
			continue
		}
		intValue, err := strconv.Atoi(configValue)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		*field = intValue
	}

	boolFields := map[string]*bool{
		"OWNER_ONLY_DOWNLOAD": &cfg.OwnerOnlyDownload,
		"ENABLE_GZIP":         &cfg.EnableGzip,
		"RECONCILE_ON_START":  &cfg.ReconcileOnStart,
	}
	for key, field := range boolFields {
		configValue, ok := configMap[key]
		if !ok || configValue == "" {
			continue
		}
		boolValue, err := strconv.ParseBool(configValue)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		*field = boolValue
	}

	cfg.BlobDriver = strings.ToLower(cfg.BlobDriver)
	return nil
}
