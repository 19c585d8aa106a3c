// Package config loads mapknowledge settings.
//
// Settings come from three layers, later ones winning: built-in defaults,
// a TOML file, and the environment (optionally seeded from a .env file).
// The merged result is validated before use.
//
//	[scicrunch]
//	release = "sckan-scigraph"
//	timeout = "30s"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/matzehuels/mapknowledge/pkg/errors"
)

// Config is the complete application configuration.
type Config struct {
	SciCrunch   SciCrunch `toml:"scicrunch"`
	Cache       Cache     `toml:"cache"`
	Store       Store     `toml:"store"`
	Postgres    Postgres  `toml:"postgres"`
	Neo4j       Neo4j     `toml:"neo4j"`
	Server      Server    `toml:"server"`
	Concurrency int       `toml:"concurrency" validate:"min=1,max=64"`
}

// SciCrunch configures the knowledge service client.
type SciCrunch struct {
	Endpoint string   `toml:"endpoint" validate:"required,url"`
	Release  string   `toml:"release" validate:"oneof=sckan-scigraph sparc-scigraph"`
	APIKey   string   `toml:"api_key"`
	Timeout  Duration `toml:"timeout"`
}

// Cache selects where HTTP responses are cached.
type Cache struct {
	Backend       string `toml:"backend" validate:"oneof=file redis none"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db" validate:"min=0"`

	// Prefix scopes every key, so deployments can share a Redis database.
	Prefix string `toml:"prefix"`
}

// Store selects the local knowledge store.
type Store struct {
	Backend       string `toml:"backend" validate:"oneof=sqlite mongo"`
	Path          string `toml:"path" validate:"required_if=Backend sqlite"`
	MongoURI      string `toml:"mongo_uri" validate:"required_if=Backend mongo"`
	MongoDatabase string `toml:"mongo_database"`
}

// Postgres locates the relational knowledge database.
type Postgres struct {
	Host     string `toml:"host" validate:"required"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database" validate:"required"`
	SSLMode  string `toml:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
}

// DSN returns the connection URL of the database.
func (p Postgres) DSN() string {
	var user string
	switch {
	case p.User != "" && p.Password != "":
		user = p.User + ":" + p.Password + "@"
	case p.User != "":
		user = p.User + "@"
	}
	dsn := fmt.Sprintf("postgresql://%s%s/%s", user, p.Host, p.Database)
	if p.SSLMode != "" {
		dsn += "?sslmode=" + p.SSLMode
	}
	return dsn
}

// Neo4j configures direct Cypher access to a SciGraph database.
type Neo4j struct {
	URI      string `toml:"uri" validate:"omitempty,url"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

// Server configures the HTTP lookup service.
type Server struct {
	Addr string `toml:"addr" validate:"required,hostname_port"`

	// AllowedOrigins enables CORS for browser-based map viewers.
	AllowedOrigins []string `toml:"allowed_origins" validate:"dive,url"`
}

// Duration is a time.Duration written as a string such as "30s".
type Duration struct{ time.Duration }

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SciCrunch: SciCrunch{
			Endpoint: "https://scicrunch.org/api/1",
			Release:  "sckan-scigraph",
			Timeout:  Duration{30 * time.Second},
		},
		Cache: Cache{Backend: "file"},
		Store: Store{
			Backend:       "sqlite",
			Path:          "knowledgebase.db",
			MongoDatabase: "mapknowledge",
		},
		Postgres: Postgres{
			Host:     "localhost:5432",
			Database: "map-knowledge",
		},
		Server:      Server{Addr: "localhost:8080"},
		Concurrency: 8,
	}
}

// DefaultPath returns the per-user configuration file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mapknowledge", "config.toml")
}

// Load builds the configuration from defaults, the TOML file at path and
// the environment. A missing file is only an error when path was given
// explicitly; an empty path falls back to [DefaultPath].
func Load(path string) (Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		_, err := toml.DecodeFile(path, &cfg)
		switch {
		case err == nil:
		case os.IsNotExist(err) && !explicit:
		default:
			return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes a TOML document over the defaults without consulting the
// environment.
func Parse(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("SCICRUNCH_API_KEY", &c.SciCrunch.APIKey)
	str("SCICRUNCH_RELEASE", &c.SciCrunch.Release)
	str("SCICRUNCH_API_ENDPOINT", &c.SciCrunch.Endpoint)
	str("KNOWLEDGE_USER", &c.Postgres.User)
	str("KNOWLEDGE_HOST", &c.Postgres.Host)
	str("KNOWLEDGE_PASSWORD", &c.Postgres.Password)
	str("MAPKNOWLEDGE_CACHE", &c.Cache.Backend)
	str("REDIS_ADDR", &c.Cache.RedisAddr)
	str("REDIS_PASSWORD", &c.Cache.RedisPassword)
	str("MAPKNOWLEDGE_CACHE_PREFIX", &c.Cache.Prefix)
	str("MONGO_URI", &c.Store.MongoURI)
	str("NEO4J_URI", &c.Neo4j.URI)
	str("NEO4J_USER", &c.Neo4j.User)
	str("NEO4J_PASSWORD", &c.Neo4j.Password)
	str("MAPKNOWLEDGE_ADDR", &c.Server.Addr)
	if v, ok := lookup("MAPKNOWLEDGE_ALLOWED_ORIGINS"); ok && v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}

	if v, ok := lookup("MAPKNOWLEDGE_CONCURRENCY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "MAPKNOWLEDGE_CONCURRENCY")
		}
		c.Concurrency = n
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration, reporting every invalid field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(errors.ErrCodeInternal, err, "validate config")
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
	}
	return errors.New(errors.ErrCodeInvalidInput, "invalid config: %s", strings.Join(msgs, "; "))
}
