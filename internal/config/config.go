package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/MrJamesThe3rd/backoffice/internal/database"
	"github.com/MrJamesThe3rd/backoffice/internal/logging"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Backoffice"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host            string        `envconfig:"DB_HOST" default:"localhost"`
		Port            int           `envconfig:"DB_PORT" default:"5432"`
		User            string        `envconfig:"DB_USER" default:"postgres"`
		Password        string        `envconfig:"DB_PASSWORD" default:""`
		Name            string        `envconfig:"DB_NAME" default:"backoffice"`
		SSLMode         string        `envconfig:"DB_SSLMODE" default:"disable"`
		MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
		MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
		ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Format string `envconfig:"LOG_FORMAT" default:"console"`
		Output string `envconfig:"LOG_OUTPUT" default:"stderr"`
	}

	Auth struct {
		// Secret signs API tokens. Authentication is off when it is empty.
		Secret       string        `envconfig:"AUTH_SECRET"`
		Username     string        `envconfig:"AUTH_USERNAME" default:"admin"`
		PasswordHash string        `envconfig:"AUTH_PASSWORD_HASH"`
		TokenTTL     time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"12h"`
	}

	Console struct {
		Mode        string        `envconfig:"CONSOLE_MODE" default:"local"`
		APIURL      string        `envconfig:"CONSOLE_API_URL" default:"http://localhost:8080"`
		ErrorPolicy string        `envconfig:"CONSOLE_ERROR_POLICY" default:"log"`
		PrefsPath   string        `envconfig:"CONSOLE_PREFS_PATH" default:".backoffice.yaml"`
		LogFile     string        `envconfig:"CONSOLE_LOG_FILE" default:"backoffice.log"`
		Timeout     time.Duration `envconfig:"CONSOLE_TIMEOUT" default:"5s"`
		ExportDir   string        `envconfig:"CONSOLE_EXPORT_DIR" default:"."`
	}

	Server struct {
		Timeout     time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		CORSOrigins []string      `envconfig:"SERVER_CORS_ORIGINS" default:"*"`
	}

	Modules struct {
		// Path to a YAML module definition file. The built-in modules are used when empty.
		Path string `envconfig:"MODULES_PATH"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

func (c *Config) Database() database.Options {
	return database.Options{
		DSN:             c.ConnectionString(),
		MaxOpenConns:    c.DB.MaxOpenConns,
		MaxIdleConns:    c.DB.MaxIdleConns,
		ConnMaxLifetime: c.DB.ConnMaxLifetime,
	}
}

func (c *Config) Logging() logging.Options {
	return logging.Options{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		Output: c.Log.Output,
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	switch cfg.Console.Mode {
	case "local", "remote":
	default:
		return nil, fmt.Errorf("CONSOLE_MODE must be local or remote, got %q", cfg.Console.Mode)
	}

	return &cfg, nil
}
