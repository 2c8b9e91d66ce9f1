// Package logging provides structured logging for areavis.
//
// This package wraps Go's log/slog to provide JSON (or text) formatted logs
// with context propagation. Visibility traffic is asynchronous, so every log
// line carries the widget, area or topic it concerns, which makes a session's
// request/confirmation chains filterable after the fact.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/path/to/logdir", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.WithWidget("w1").WithArea("w1-content").Info("area registered")
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"area registered","widget_id":"w1","area":"w1-content"}
//
// # Testing
//
// For testing, use [NopLogger] to discard all log output.
//
// # Configuration
//
//	logging:
//	  level: info
//	  format: json
//	  dir: ""
package logging
