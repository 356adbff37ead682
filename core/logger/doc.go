// Package logger provides slog attribute helpers shared across the module.
//
// Helpers use the empty Attr pattern for nil safety, so call sites never
// need explicit nil checks:
//
//	log.Info("fan-out finished",
//	    logger.Component("channel"),
//	    logger.Error(err), // empty attr when err is nil
//	)
package logger
