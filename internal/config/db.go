package config

import "fmt"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DBConfig читается из переменных DB_*.
type DBConfig struct {
	Driver string `envconfig:"DRIVER" default:"postgres"`

	Host     string `envconfig:"HOST" default:"postgres"`
	Port     int    `envconfig:"PORT" default:"5432"`
	User     string `envconfig:"USER" default:"booking"`
	Password string `envconfig:"PASSWORD" default:"booking"`
	Name     string `envconfig:"NAME" default:"booking_db"`
	SSLMode  string `envconfig:"SSLMODE" default:"disable"`
	TimeZone string `envconfig:"TIMEZONE" default:"UTC"`

	SQLitePath string `envconfig:"SQLITE_PATH" default:"reserveme.db"`

	MaxOpenConns    int `envconfig:"MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int `envconfig:"MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifeTime int `envconfig:"CONN_MAX_LIFETIME_MIN" default:"30"` // минут
}

// PostgresDSN собирает DSN в формате key=value для gorm.io/driver/postgres.
func (c DBConfig) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		c.Host,
		c.User,
		c.Password,
		c.Name,
		c.Port,
		c.SSLMode,
		c.TimeZone,
	)
}

func (c DBConfig) validate() error {
	switch c.Driver {
	case DriverPostgres:
		// минимальная валидация
		if c.Host == "" || c.User == "" || c.Name == "" {
			return fmt.Errorf("invalid DB config: host/user/name must not be empty")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("invalid DB config: DB_SQLITE_PATH must not be empty")
		}
	default:
		return fmt.Errorf("invalid DB config: unsupported driver %q", c.Driver)
	}
	return nil
}
