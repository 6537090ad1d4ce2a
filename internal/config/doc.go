// Package config loads calbook settings from flags, CALBOOK_* environment
// variables, an optional .env file and an optional calbook.yaml config file,
// in that order of precedence.
//
// Loaded settings build the booking service that every surface shares:
//
//	v := config.NewViper()
//	cfg, err := config.Load(v, "")
//	svc, err := config.NewBookingService(ctx, cfg, config.Deps{Logger: logger})
package config
