// Package logger builds *slog.Logger values with functional options and
// injects request-scoped attributes (request id, user id) pulled from
// context.Context on every record.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "easyauth"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "code redeemed", logger.ClientID(app.ClientID))
package logger
