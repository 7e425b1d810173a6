// Package utils exposes the configuration and logging plumbing shared by the
// bigtop-patches commands.
//
// ConfigurationLoader layers embedded defaults, an optional YAML file and
// BIGTOPPATCHES_* environment variables through Viper. LoggerFactory builds the
// zap loggers used for diagnostics and operator-facing console output.
package utils
