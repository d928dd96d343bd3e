package initialization

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all connector service configuration
type Config struct {
	// HTTP listen address for the orchestrator-facing API
	HTTPAddress string

	// Civil time zone anchoring the Google Fit daily window
	GoogleFitTimezone string

	// Outbound request timeout towards the source APIs, in seconds
	HTTPTimeoutSeconds int
}

// LoadConfig loads configuration from files and environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Configure environment variables - do this BEFORE reading config
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set up explicit mappings between struct fields and environment variables
	envMappings := map[string]string{
		"HTTPAddress":        "HTTP_ADDRESS",
		"GoogleFitTimezone":  "GOOGLEFIT_TIMEZONE",
		"HTTPTimeoutSeconds": "HTTP_TIMEOUT_SECONDS",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	v.SetConfigName("connector_config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.fitsync")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, will just use environment variables and defaults
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	log.Debug().Msgf("Config loaded: HTTPAddress=%s, GoogleFitTimezone=%s",
		config.HTTPAddress, config.GoogleFitTimezone)

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTPAddress", ":8080")
	v.SetDefault("GoogleFitTimezone", "America/Chicago")
	v.SetDefault("HTTPTimeoutSeconds", 30)
}
