// Package config loads and validates Atrium Core configuration.
//
// Configuration is read from a YAML file, merged over hardcoded defaults,
// and finally overridden by ATRIUM_* environment variables. Secrets (JWT
// signing key, admin API key, broker credentials, InfluxDB token) should
// always come from the environment in production.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, ...})
package config
