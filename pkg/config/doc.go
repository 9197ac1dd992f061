// Package config loads typed configuration structs from the process
// environment.
//
// A `.env` file in the working directory is read once through
// github.com/joho/godotenv, then each struct is parsed with
// github.com/caarlos0/env/v11. Parsed values are cached per type so every
// component can call Load for its own config without re-parsing.
//
//	var cfg oidc.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
package config
