package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hubtab/TABAgent/internal/api"
	"github.com/hubtab/TABAgent/internal/genai"
	"github.com/hubtab/TABAgent/internal/store"
	"github.com/hubtab/TABAgent/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for TABAgent state data
	DefaultStateDir = "/var/lib/tabagent"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "tabagent.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()

	flags := parseCommandLineFlags(config)

	storeOpts := buildStoreOptions(flags)
	genaiOpts := buildGenAIOptions(flags)
	apiOpts := buildAPIOptions(flags)

	slog.Info("Bootstrapping TABAgent with configured modules")
	slog.Debug("Module options counts", "store", len(storeOpts), "genai", len(genaiOpts), "api", len(apiOpts))
	slog.Debug("Final configuration", "dsn_set", *flags.dbDSN != "", "api_addr", *flags.apiAddr, "hub_cities", *flags.hubCities)
	if err := api.Run(storeOpts, genaiOpts, apiOpts); err != nil {
		slog.Error("TABAgent failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("TABAgent exited successfully")
}

// Config holds environment configuration
type Config struct {
	DbDriver       string
	DatabaseURL    string
	StateDir       string
	OpenAIKey      string
	OpenAIBaseURL  string
	APIAddr        string
	HubCities      string
	HubMasterFile  string
	BlobConnString string
}

// Flags holds command line flag values
type Flags struct {
	dbDriver       *string
	dbDSN          *string
	openaiKey      *string
	apiAddr        *string
	hubCities      *string
	hubMasterFile  *string
	blobConnString *string

	openaiBaseURL string
}

// initializeLogger sets up structured logging; TAB_DEBUG enables debug level
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("TAB_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DbDriver:       os.Getenv("TAB_DB_DRIVER"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		StateDir:       os.Getenv("TAB_STATE_DIR"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		APIAddr:        os.Getenv("API_ADDR"),
		HubCities:      os.Getenv("TAB_HUB_CITIES"),
		HubMasterFile:  os.Getenv("TAB_HUB_MASTER_FILE"),
		BlobConnString: os.Getenv("AZURE_STORAGE_CONNECTION_STRING"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No TAB_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	return config
}

// parseCommandLineFlags parses flags with environment values as defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		dbDriver:       flag.String("db-driver", config.DbDriver, "Session store driver: sqlite, postgres, redis or memory (env TAB_DB_DRIVER)"),
		dbDSN:          flag.String("db-dsn", config.DatabaseURL, "Session store DSN (env DATABASE_URL)"),
		openaiKey:      flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (env OPENAI_API_KEY)"),
		apiAddr:        flag.String("api-addr", config.APIAddr, "API listen address (env API_ADDR)"),
		hubCities:      flag.String("hub-cities", config.HubCities, "Comma-separated Innovation Hub city names (env TAB_HUB_CITIES)"),
		hubMasterFile:  flag.String("hub-master-file", config.HubMasterFile, "Path to the hub master data document (env TAB_HUB_MASTER_FILE)"),
		blobConnString: flag.String("blob-connection-string", config.BlobConnString, "Azure Storage connection string for generated documents (env AZURE_STORAGE_CONNECTION_STRING)"),
	}
	flag.Parse()

	flags.openaiBaseURL = config.OpenAIBaseURL

	// Default the SQLite DSN into the state directory when nothing is configured.
	if *flags.dbDSN == "" && (*flags.dbDriver == "" || *flags.dbDriver == store.DriverSQLite) {
		*flags.dbDSN = config.StateDir + "/" + DefaultDBFileName
		slog.Debug("No DSN configured, using SQLite default", "dsn", *flags.dbDSN)
	}

	return flags
}

// buildStoreOptions builds store options from flags
func buildStoreOptions(flags Flags) []store.Option {
	var opts []store.Option
	if *flags.dbDSN != "" {
		opts = append(opts, store.WithDSN(*flags.dbDSN))
	}
	// The driver itself travels via TAB_DB_DRIVER so api.Run can select the
	// backend; keep the env in sync with the flag override.
	if *flags.dbDriver != "" {
		os.Setenv("TAB_DB_DRIVER", *flags.dbDriver)
	}
	return opts
}

// buildGenAIOptions builds LLM client options from flags
func buildGenAIOptions(flags Flags) []genai.Option {
	var opts []genai.Option
	if *flags.openaiKey != "" {
		opts = append(opts, genai.WithAPIKey(*flags.openaiKey))
	}
	if flags.openaiBaseURL != "" {
		opts = append(opts, genai.WithBaseURL(flags.openaiBaseURL))
	}
	return opts
}

// buildAPIOptions builds API server options from flags
func buildAPIOptions(flags Flags) []api.Option {
	var opts []api.Option
	if *flags.apiAddr != "" {
		opts = append(opts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.hubCities != "" {
		var cities []string
		for _, city := range strings.Split(*flags.hubCities, ",") {
			if city = strings.TrimSpace(city); city != "" {
				cities = append(cities, city)
			}
		}
		opts = append(opts, api.WithHubCities(cities))
	}
	if *flags.hubMasterFile != "" {
		opts = append(opts, api.WithHubMasterFile(*flags.hubMasterFile))
	}
	if *flags.blobConnString != "" {
		opts = append(opts, api.WithBlobConnectionString(*flags.blobConnString))
	}
	return opts
}
