// Package config loads application configuration from YAML files, .env files
// and environment variables.
//
// It uses Viper for file loading and godotenv for .env files. Environment
// variables override file values when they carry the application prefix and
// use underscores for nesting:
//
//	REPOGET_LOCATION_URL=https://tracker.example.com
//	REPOGET_CLIENT_PREEMPTIVE_AUTHENTICATION=true
//
// Struct validation uses go-playground/validator tags:
//
//	type LocationConfig struct {
//	    URL string `mapstructure:"url" validate:"required,url"`
//	}
package config
