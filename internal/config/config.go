package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingHashSecret aborts startup when HASH_SECRET is not provided.
var ErrMissingHashSecret = errors.New("HASH_SECRET must be set")

type Config struct {
	Port   string
	Log    Log
	DB     DB
	Hash   Hash
	API    API
	Server Server
}

type Log struct {
	Level  string
	Format string
}

type DB struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Hash struct {
	Secret     string
	Algorithm  string
	Time       uint32
	MemoryKiB  uint32
	Threads    uint8
	KeyLen     uint32
	SaltLen    uint32
	BcryptCost int
	Workers    int
}

// API.StrictErrors switches from the flat 500 error model to 404 for missing users.
type API struct {
	StrictErrors bool
}

type Server struct {
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

var defaults = map[string]any{
	"port":                       "8080",
	"log.level":                  "info",
	"log.format":                 "console",
	"db.driver":                  "sqlite",
	"db.dsn":                     "users.db",
	"db.max_open_conns":          10,
	"db.max_idle_conns":          5,
	"db.conn_max_lifetime":       5 * time.Minute,
	"hash.secret":                "",
	"hash.algorithm":             "argon2id",
	"hash.time":                  3,
	"hash.memory_kib":            64 * 1024,
	"hash.threads":               4,
	"hash.key_len":               32,
	"hash.salt_len":              16,
	"hash.bcrypt_cost":           10,
	"hash.workers":               2,
	"api.strict_errors":          false,
	"server.read_header_timeout": 10 * time.Second,
	"server.write_timeout":       10 * time.Second,
	"server.idle_timeout":        60 * time.Second,
	"server.shutdown_timeout":    10 * time.Second,
}

// Load resolves configuration and validates all of it. Commands that only touch
// the store use Read and ValidateDB instead.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read resolves configuration once: .env, then the config file (configs/config.yml
// unless path is given), then environment variables such as PORT, DB_DSN and HASH_SECRET.
// The result is not validated.
func Read(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
	} else {
		v.AddConfigPath("configs") // configs/config.yml
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Port: v.GetString("port"),
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		DB: DB{
			Driver:          v.GetString("db.driver"),
			DSN:             v.GetString("db.dsn"),
			MaxOpenConns:    v.GetInt("db.max_open_conns"),
			MaxIdleConns:    v.GetInt("db.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
		},
		Hash: Hash{
			Secret:     v.GetString("hash.secret"),
			Algorithm:  strings.ToLower(strings.TrimSpace(v.GetString("hash.algorithm"))),
			Time:       v.GetUint32("hash.time"),
			MemoryKiB:  v.GetUint32("hash.memory_kib"),
			Threads:    v.GetUint8("hash.threads"),
			KeyLen:     v.GetUint32("hash.key_len"),
			SaltLen:    v.GetUint32("hash.salt_len"),
			BcryptCost: v.GetInt("hash.bcrypt_cost"),
			Workers:    v.GetInt("hash.workers"),
		},
		API: API{
			StrictErrors: v.GetBool("api.strict_errors"),
		},
		Server: Server{
			ReadHeaderTimeout: v.GetDuration("server.read_header_timeout"),
			WriteTimeout:      v.GetDuration("server.write_timeout"),
			IdleTimeout:       v.GetDuration("server.idle_timeout"),
			ShutdownTimeout:   v.GetDuration("server.shutdown_timeout"),
		},
	}
}

// Validate rejects configurations the process cannot run with.
func (c Config) Validate() error {
	if c.Hash.Secret == "" {
		return ErrMissingHashSecret
	}
	if err := c.ValidateDB(); err != nil {
		return err
	}
	switch c.Hash.Algorithm {
	case "argon2id", "bcrypt":
	default:
		return fmt.Errorf("hash.algorithm: unsupported %q (want argon2id or bcrypt)", c.Hash.Algorithm)
	}
	if c.Hash.Workers < 1 {
		return errors.New("hash.workers must be >= 1")
	}
	if c.Hash.Algorithm == "argon2id" && (c.Hash.Time < 1 || c.Hash.Threads < 1 || c.Hash.KeyLen < 16 || c.Hash.SaltLen < 8) {
		return errors.New("hash: argon2id parameters out of range")
	}
	return nil
}

// ValidateDB checks only the store settings.
func (c Config) ValidateDB() error {
	switch c.DB.Driver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("db.driver: unsupported %q (want sqlite or pgx)", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return errors.New("db.dsn must be set")
	}
	if c.DB.MaxOpenConns < 1 || c.DB.MaxIdleConns < 1 {
		return errors.New("db pool sizes must be >= 1")
	}
	return nil
}
