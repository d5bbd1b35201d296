// Package logging builds the service's slog loggers.
//
// LOG_LEVEL (debug, info, warn, error) and LOG_FORMAT (json, text) select
// the handler; request-scoped loggers carry the request id:
//
//	logger := logging.WithRequestID(r.Context(), h.Logger)
//	logger.Error("failed to list posts", slog.String("error", msg))
package logging
