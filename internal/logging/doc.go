// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

/*
Package logging provides the zerolog-based logging used across Vidrec.

The package keeps one global zerolog.Logger configured from the logging
section of the application config. Long-lived components take a
zerolog.Logger in their constructor and tag it with a component field;
request-scoped code uses Ctx so request, correlation and user ids follow
the call.

# Quick Start

	logging.Init(logging.Config{Level: "info", Format: "json"})

	logging.Info().Str("addr", addr).Msg("Server starting")
	logging.Ctx(ctx).Warn().Err(err).Msg("Recommendation failed")

	logger := logging.WithComponent("recommend")

# slog Bridge

Libraries that log through log/slog (suture via sutureslog, watermill via
watermill.NewSlogLogger) are wired to the same output through
NewSlogLogger:

	supervisor := suture.New("vidrec", suture.Spec{
		EventHook: (&sutureslog.Handler{Logger: logging.NewSlogLogger()}).MustHook(),
	})

# Configuration

	logging:
	  level: info      # trace, debug, info, warn, error
	  format: json     # json or console
	  caller: false

Environment overrides: VIDREC_LOG_LEVEL, VIDREC_LOG_FORMAT, VIDREC_LOG_CALLER.
*/
package logging
