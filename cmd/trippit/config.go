package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/trippit/internal/apperrors"
	"github.com/nkiryanov/trippit/internal/logger"
	"github.com/nkiryanov/trippit/internal/service/reddit"
)

const (
	defaultListenAddr    = "localhost:8000"
	defaultLoggingLevel  = logger.LevelInfo
	defaultEnvironment   = logger.EnvProduction
	defaultAllowedOrigin = "*"
	defaultSessionTTL    = time.Hour
	defaultSubreddit     = "trippit"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the trippit service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// Signs the OAuth state sent through the browser
	SecretKey string

	// Environment
	Environment string

	// Browser origin allowed to call the API
	AllowedOrigin string

	// Redis to keep sessions in. Sessions are kept in process memory if empty
	RedisURL string

	// Session lifetime when Reddit does not tell when the user token expires
	SessionTTL time.Duration

	Reddit RedditConfig
}

type RedditConfig struct {
	ClientID     string
	ClientSecret string

	// Service account the itineraries are posted from
	Username string
	Password string

	// Where Reddit sends the user after interactive login
	RedirectURI string

	Subreddit string
	UserAgent string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:      defaultLoggingLevel,
		ListenAddr:    defaultListenAddr,
		Environment:   defaultEnvironment,
		AllowedOrigin: defaultAllowedOrigin,
		SessionTTL:    defaultSessionTTL,
		Reddit: RedditConfig{
			Subreddit: defaultSubreddit,
			UserAgent: reddit.DefaultUserAgent,
		},
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":          setString(&c.ListenAddr),
		"DATABASE_URI":         setString(&c.DatabaseDSN),
		"SECRET_KEY":           setString(&c.SecretKey),
		"LOG_LEVEL":            setString(&c.LogLevel),
		"ENVIRONMENT":          setString(&c.Environment),
		"ALLOWED_ORIGIN":       setString(&c.AllowedOrigin),
		"REDIS_URL":            setString(&c.RedisURL),
		"SESSION_TTL":          setDuration(&c.SessionTTL),
		"REDDIT_CLIENT_ID":     setString(&c.Reddit.ClientID),
		"REDDIT_CLIENT_SECRET": setString(&c.Reddit.ClientSecret),
		"REDDIT_USERNAME":      setString(&c.Reddit.Username),
		"REDDIT_PASSWORD":      setString(&c.Reddit.Password),
		"REDDIT_REDIRECT_URI":  setString(&c.Reddit.RedirectURI),
		"REDDIT_SUBREDDIT":     setString(&c.Reddit.Subreddit),
		"REDDIT_USER_AGENT":    setString(&c.Reddit.UserAgent),
	}

	var errs []error
	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("trippit", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVarP(&c.AllowedOrigin, "allowed-origin", "o", c.AllowedOrigin, "Origin allowed by CORS")
	fs.StringVarP(&c.RedisURL, "redis", "r", c.RedisURL, "Redis URL to keep sessions in")
	fs.DurationVar(&c.SessionTTL, "session-ttl", c.SessionTTL, "Session lifetime if Reddit does not report token expiry")
	fs.StringVar(&c.Reddit.ClientID, "reddit-client-id", c.Reddit.ClientID, "Reddit app client id")
	fs.StringVar(&c.Reddit.Username, "reddit-username", c.Reddit.Username, "Reddit service account")
	fs.StringVar(&c.Reddit.RedirectURI, "reddit-redirect-uri", c.Reddit.RedirectURI, "Reddit OAuth redirect uri")
	fs.StringVar(&c.Reddit.Subreddit, "subreddit", c.Reddit.Subreddit, "Subreddit to publish itineraries to")
	fs.StringVar(&c.Reddit.UserAgent, "user-agent", c.Reddit.UserAgent, "User-Agent sent to Reddit")

	return fs.Parse(args)
}

// Check every required option is set
func (c *Config) Validate() error {
	var missing []string
	for _, opt := range [][2]string{
		{"DATABASE_URI", c.DatabaseDSN},
		{"SECRET_KEY", c.SecretKey},
		{"REDDIT_CLIENT_ID", c.Reddit.ClientID},
		{"REDDIT_CLIENT_SECRET", c.Reddit.ClientSecret},
		{"REDDIT_USERNAME", c.Reddit.Username},
		{"REDDIT_PASSWORD", c.Reddit.Password},
		{"REDDIT_REDIRECT_URI", c.Reddit.RedirectURI},
		{"REDDIT_SUBREDDIT", c.Reddit.Subreddit},
	} {
		if opt[1] == "" {
			missing = append(missing, opt[0])
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", apperrors.ErrConfiguration, strings.Join(missing, ", "))
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: SESSION_TTL must be positive", apperrors.ErrConfiguration)
	}

	return nil
}
