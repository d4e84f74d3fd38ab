// Package logconfig implements the YAML logging configuration document
// installed into a lifecycle.Instance.
//
// A document looks like:
//
//	auto_reload: true
//	level: info        # debug, info, warn, error
//	format: json       # json, text
//	output: stdout     # stdout, stderr, discard
//	variables:
//	  app: billing
//	  region: eu-west-1
//
// Each loaded Document carries a prebuilt slog.Handler. Reload re-reads the
// file and reports "no replacement" when the content digest is unchanged,
// so timer-driven reloads of an untouched file never fire change events.
//
// Handler is the slog.Handler applications log through. It consults the
// instance on every record: suspended instances and instances without an
// installed Document drop records.
package logconfig
