// Package config loads pipeflow configuration from a YAML file, an optional
// .env file and environment variables using Viper.
//
// # Usage
//
//	var cfg app.Config
//	err := config.LoadConfig("pipeflow", &cfg, config.WithConfigFile(path))
//
// Environment variables carrying the PIPEFLOW_ prefix override file values;
// underscores map to nested keys (PIPEFLOW_PHYSICS_LENGTH_CONSTANT sets
// physics.length_constant).
package config
