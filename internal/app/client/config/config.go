package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const (
	defaultRemoteURL     = "http://localhost:8080"
	defaultLogLevel      = "info"
	defaultEnv           = EnvLocal
	defaultConfigDir     = ".fieldsync"
	defaultStatusAddress = "127.0.0.1:8765"
)

type Config struct {
	Env              string        `mapstructure:"app_env"`
	RemoteURL        string        `mapstructure:"remote_url"`
	LogLevel         string        `mapstructure:"log_level"`
	LogFile          string        `mapstructure:"log_file"`
	ConfigDir        string        `mapstructure:"config_dir"`
	DataPath         string        `mapstructure:"data_path"`
	DeviceID         string        `mapstructure:"device_id"`
	SyncInterval     time.Duration `mapstructure:"-"`
	RequestTimeout   time.Duration `mapstructure:"-"`
	ProbeInterval    time.Duration `mapstructure:"-"`
	SaveDebounce     time.Duration `mapstructure:"-"`
	ReferenceRefresh time.Duration `mapstructure:"-"`
	MediaMaxWidth    int           `mapstructure:"media_max_width"`
	MediaQuality     float64       `mapstructure:"media_quality"`
	ReferenceLive    bool          `mapstructure:"reference_live_read"`
	StatusAddress    string        `mapstructure:"status_address"`
}

// MustLoad загружает конфигурацию клиента или паникует
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("Ошибка конфигурации: %v", err))
	}
	return cfg
}

// Load загружает конфигурацию из .env, окружения и значений по умолчанию
func Load() (*Config, error) {
	// Определяем путь к .env файлу (относительно места запуска)
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}

	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Fprintf(os.Stderr, "Ошибка загрузки .env файла: %v\n", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", defaultEnv)
	v.SetDefault("REMOTE_URL", defaultRemoteURL)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("CONFIG_DIR", defaultConfigDir)
	v.SetDefault("SYNC_INTERVAL_SECONDS", 30)
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 15)
	v.SetDefault("PROBE_INTERVAL_SECONDS", 10)
	v.SetDefault("SAVE_DEBOUNCE_MS", 2000)
	v.SetDefault("REFERENCE_REFRESH_SECONDS", 900)
	v.SetDefault("MEDIA_MAX_WIDTH", 1920)
	v.SetDefault("MEDIA_QUALITY", 0.7)
	v.SetDefault("REFERENCE_LIVE_READ", true)
	v.SetDefault("STATUS_ADDRESS", defaultStatusAddress)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	configDir := v.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		configDir = filepath.Join(homeDir, configDir)
	}

	dataPath := v.GetString("DATA_PATH")
	if dataPath == "" {
		dataPath = filepath.Join(configDir, "fieldsync.db")
	}

	deviceID := v.GetString("DEVICE_ID")
	if deviceID == "" {
		deviceID = hostname()
	}

	cfg := &Config{
		Env:              v.GetString("APP_ENV"),
		RemoteURL:        strings.TrimRight(v.GetString("REMOTE_URL"), "/"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFile:          v.GetString("LOG_FILE"),
		ConfigDir:        configDir,
		DataPath:         dataPath,
		DeviceID:         deviceID,
		SyncInterval:     time.Duration(v.GetInt("SYNC_INTERVAL_SECONDS")) * time.Second,
		RequestTimeout:   time.Duration(v.GetInt("REQUEST_TIMEOUT_SECONDS")) * time.Second,
		ProbeInterval:    time.Duration(v.GetInt("PROBE_INTERVAL_SECONDS")) * time.Second,
		SaveDebounce:     time.Duration(v.GetInt("SAVE_DEBOUNCE_MS")) * time.Millisecond,
		ReferenceRefresh: time.Duration(v.GetInt("REFERENCE_REFRESH_SECONDS")) * time.Second,
		MediaMaxWidth:    v.GetInt("MEDIA_MAX_WIDTH"),
		MediaQuality:     v.GetFloat64("MEDIA_QUALITY"),
		ReferenceLive:    v.GetBool("REFERENCE_LIVE_READ"),
		StatusAddress:    v.GetString("STATUS_ADDRESS"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.RemoteURL == "" {
		return fmt.Errorf("remote_url не может быть пустым")
	}
	if c.DataPath == "" {
		return fmt.Errorf("data_path не может быть пустым")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval_seconds должен быть положительным")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout_seconds должен быть положительным")
	}
	if c.ReferenceRefresh <= 0 {
		return fmt.Errorf("reference_refresh_seconds должен быть положительным")
	}
	if c.MediaQuality <= 0 || c.MediaQuality > 1 {
		return fmt.Errorf("media_quality должен быть в диапазоне (0, 1]")
	}
	return nil
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == EnvProd
}

// IsDev проверяет, dev ли окружение
func (c *Config) IsDev() bool {
	return c.Env == EnvDev
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == EnvLocal || c.Env == ""
}
