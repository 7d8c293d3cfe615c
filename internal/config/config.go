// Package config loads application configuration from environment
// variables.  Everything is read once at start-up into explicit structs
// that are passed to the components that need them.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Config holds the runtime configuration of the API server.
type Config struct {
	Env            string // APP_ENV: dev, test, prod
	Port           string // APP_PORT
	DBUser         string
	DBPass         string // may be empty
	DBHost         string
	DBPort         string
	DBName         string
	JWTSecret      string // user session JWTs
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int

	AnonTokenSecret    string
	VideoTokenSecret   string
	TrailerTokenSecret string
	AnonTokenTTL       time.Duration
	VideoTokenTTL      time.Duration
	TrailerTokenTTL    time.Duration
	RentalDuration     time.Duration

	LogLevel  string
	LogFormat string // json or console
}

// Lookup reads one variable; os.LookupEnv satisfies it.
type Lookup func(key string) (string, bool)

// Load reads the process environment.
func Load() (Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom builds a Config from env.  Every missing or malformed variable
// is reported, not just the first.
func LoadFrom(env Lookup) (Config, error) {
	r := reader{env: env}
	cfg := Config{
		Env:            r.must("APP_ENV"),
		Port:           r.must("APP_PORT"),
		DBUser:         r.must("DB_USER"),
		DBPass:         r.str("DB_PASS", ""),
		DBHost:         r.must("DB_HOST"),
		DBPort:         r.must("DB_PORT"),
		DBName:         r.must("DB_NAME"),
		JWTSecret:      r.must("JWT_SECRET"),
		AccessTTLMin:   r.num("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays: r.num("REFRESH_TOKEN_TTL_DAYS", 30),
		BcryptCost:     r.num("BCRYPT_COST", 12),

		AnonTokenSecret:    r.must("ANON_TOKEN_SECRET"),
		VideoTokenSecret:   r.must("VIDEO_TOKEN_SECRET"),
		TrailerTokenSecret: r.must("TRAILER_TOKEN_SECRET"),
		AnonTokenTTL:       r.dur("ANON_TOKEN_TTL", 90*24*time.Hour),
		VideoTokenTTL:      r.dur("VIDEO_TOKEN_TTL", 15*time.Minute),
		TrailerTokenTTL:    r.dur("TRAILER_TOKEN_TTL", 2*time.Hour),
		RentalDuration:     r.dur("RENTAL_DURATION", 48*time.Hour),

		LogLevel:  r.str("LOG_LEVEL", "info"),
		LogFormat: r.str("LOG_FORMAT", "json"),
	}
	if len(r.errs) == 0 {
		r.distinct(map[string]string{
			"JWT_SECRET":           cfg.JWTSecret,
			"ANON_TOKEN_SECRET":    cfg.AnonTokenSecret,
			"VIDEO_TOKEN_SECRET":   cfg.VideoTokenSecret,
			"TRAILER_TOKEN_SECRET": cfg.TrailerTokenSecret,
		})
	}
	if len(r.errs) > 0 {
		return Config{}, errors.New("config: " + strings.Join(r.errs, "; "))
	}
	return cfg, nil
}

// DSN returns the MySQL data source name for cfg.
func (c Config) DSN() string {
	return c.DBUser + ":" + c.DBPass + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName +
		"?parseTime=true&charset=utf8mb4&loc=UTC"
}

type reader struct {
	env  Lookup
	errs []string
}

func (r *reader) must(key string) string {
	v, ok := r.env(key)
	if !ok || v == "" {
		r.errs = append(r.errs, "missing required env var "+key)
	}
	return v
}

func (r *reader) str(key, def string) string {
	if v, ok := r.env(key); ok && v != "" {
		return v
	}
	return def
}

func (r *reader) num(key string, def int) int {
	v, ok := r.env(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, "invalid int for "+key+": "+strconv.Quote(v))
	}
	return n
}

func (r *reader) dur(key string, def time.Duration) time.Duration {
	v, ok := r.env(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		r.errs = append(r.errs, "invalid duration for "+key+": "+strconv.Quote(v))
	}
	return d
}

// distinct rejects secrets shared between token families; a token signed
// for one purpose must never verify as another.
func (r *reader) distinct(secrets map[string]string) {
	seen := map[string]string{}
	for _, key := range []string{"JWT_SECRET", "ANON_TOKEN_SECRET", "VIDEO_TOKEN_SECRET", "TRAILER_TOKEN_SECRET"} {
		v := secrets[key]
		if other, dup := seen[v]; dup {
			r.errs = append(r.errs, key+" must differ from "+other)
			continue
		}
		seen[v] = key
	}
}
