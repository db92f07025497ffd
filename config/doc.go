// Package config loads service configuration with Viper.
//
// A service describes its configuration as a struct with mapstructure tags
// and embeds ServiceConfig. LoadConfig finds config.yml (and an optional
// config.<environment>.yml overlay), loads .env files with godotenv, applies
// prefixed environment variables and finally runs ApplyDefaults and Validate.
//
//	var cfg Config
//	if err := config.LoadConfig("license-service", &cfg); err != nil {
//	    return err
//	}
package config
