// Package logging provides structured logging helpers for calbook.
//
// It keeps attribute names consistent across packages and makes sure personal
// data never reaches the logs in clear text:
//
//	logger := logging.WithOperation(slog.Default(), "booking.create")
//	logger.Info("event created",
//	    logging.Source("live"),
//	    logging.UserHash(attendee))
package logging
