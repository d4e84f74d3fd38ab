// Package logging builds the slog handlers nlogd uses for its own output
// and for the pipeline output described by logging configuration documents.
//
// Records carry service=nlog and the build version. The bootstrap section
// of nlogd.yaml controls the daemon's own logger:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("configuration loaded", "instance", cfg.Instance.Name)
package logging
