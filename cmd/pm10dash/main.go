package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/chrissnell/pm10dash/internal/app"
	"github.com/chrissnell/pm10dash/internal/constants"
	"github.com/chrissnell/pm10dash/internal/log"
	"github.com/chrissnell/pm10dash/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration source:\n\t\t\t  YAML: config.yaml\n\t\t\t  SQLite: config.db\n\t\t\t  A missing YAML file means built-in defaults")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	envFile := flag.String("env-file", ".env", "Optional file of PM10DASH_* environment overrides")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("pm10dash %s\n", constants.Version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Variables already set in the environment win over the file
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Warnf("could not read %s: %v", *envFile, err)
	}

	// Load configuration
	cfgData, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// Create and run the application
	application := app.New(cfgData, log.GetSugaredLogger())
	if err := application.Run(context.Background()); err != nil {
		log.Errorf("Application error: %v", err)
		os.Exit(1)
	}
}

func loadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ConfigProvider
	var err error

	switch cfgBackend {
	case "yaml":
		if _, statErr := os.Stat(filename); os.IsNotExist(statErr) {
			log.Infof("%s not found; using built-in defaults", filename)
			provider = defaultsProvider{}
		} else {
			provider = config.NewYAMLProvider(filename)
		}
	case "sqlite":
		provider, err = config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
	defer provider.Close()

	cfgData, err := config.Load(provider)
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}

	return cfgData, nil
}

// defaultsProvider serves the built-in configuration
type defaultsProvider struct{}

func (defaultsProvider) LoadConfig() (*config.ConfigData, error) { return config.Defaults(), nil }
func (defaultsProvider) IsReadOnly() bool                        { return true }
func (defaultsProvider) Close() error                            { return nil }
