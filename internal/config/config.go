package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "CALMCASH_"

type Application struct {
	// Production forces HTTPS for every backend URL, localhost included.
	Production bool     `koanf:"production"`
	Auth       Endpoint `koanf:"auth"`
	Budget     Endpoint `koanf:"budget"`
	HTTP       HTTP     `koanf:"http"`
	Store      Store    `koanf:"store"`
	Log        Log      `koanf:"log"`
}

type Endpoint struct {
	URL string `koanf:"url"`
}

type HTTP struct {
	Timeout time.Duration `koanf:"timeout"`
}

type StoreDriver string

const (
	StoreFile     StoreDriver = "file"
	StoreSQLite   StoreDriver = "sqlite"
	StorePostgres StoreDriver = "postgres"
	StoreMemory   StoreDriver = "memory"
)

type Store struct {
	Driver StoreDriver `koanf:"driver"`
	Path   string      `koanf:"path"`
	DSN    string      `koanf:"dsn"`
}

// ResolvedPath returns the configured path or the per-driver default inside Dir().
func (s Store) ResolvedPath() string {
	if s.Path != "" {
		return s.Path
	}
	if s.Driver == StoreSQLite {
		return filepath.Join(Dir(), "session.db")
	}
	return filepath.Join(Dir(), "session.json")
}

type Log struct {
	Level string `koanf:"level"`
}

// Dir returns the XDG-compliant directory holding calmcash local state.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "calmcash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "calmcash")
}

func defaults() Application {
	return Application{
		Auth:   Endpoint{URL: "http://localhost:8081"},
		Budget: Endpoint{URL: "http://localhost:8082"},
		HTTP:   HTTP{Timeout: 10 * time.Second},
		Store:  Store{Driver: StoreFile},
		Log:    Log{Level: "info"},
	}
}

// Load merges defaults, the optional YAML file at path, a .env file in the working
// directory and CALMCASH_* environment variables, in that order.
func Load(path string) (Application, error) {
	var k = koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debugf("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Debugf("Loaded configuration from file: %s", path)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("unable to read .env file: %v", err)
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	if err := app.normalize(); err != nil {
		return Application{}, err
	}
	return app, nil
}

func (a *Application) normalize() error {
	authURL, err := ValidateURL("auth.url", a.Auth.URL, a.Production)
	if err != nil {
		return err
	}
	budgetURL, err := ValidateURL("budget.url", a.Budget.URL, a.Production)
	if err != nil {
		return err
	}
	a.Auth.URL = authURL
	a.Budget.URL = budgetURL

	switch a.Store.Driver {
	case StoreFile, StoreSQLite, StoreMemory:
	case StorePostgres:
		if a.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the %s store", StorePostgres)
		}
	default:
		return fmt.Errorf("unknown store.driver %q", a.Store.Driver)
	}

	if a.HTTP.Timeout <= 0 {
		a.HTTP.Timeout = defaults().HTTP.Timeout
	}
	return nil
}

// ValidateURL requires an absolute URL that uses HTTPS unless it points at
// localhost outside production. It returns the URL's origin.
func ValidateURL(name, raw string, production bool) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("%s must be a valid absolute URL. Received: %s", name, raw)
	}

	host := parsed.Hostname()
	isLocalhost := host == "localhost" || host == "127.0.0.1"
	isSecure := parsed.Scheme == "https"

	if !isSecure && !isLocalhost {
		return "", fmt.Errorf("%s must use HTTPS outside localhost. Received: %s", name, raw)
	}
	if production && !isSecure {
		return "", fmt.Errorf("%s must use HTTPS in production. Received: %s", name, raw)
	}

	return parsed.Scheme + "://" + parsed.Host, nil
}
