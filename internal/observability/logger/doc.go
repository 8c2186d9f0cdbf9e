// Package logger provides the singleton Zap logger used across Chamba.
//
// Una sola instancia global se inicializa con Init() desde main. Cada request
// puede llevar un logger "scoped" en su contexto (request_id, owner_id, ...)
// sin crear un core nuevo; From(ctx) cae al singleton si no hay nada inyectado.
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Rotate"))
//	log.Info("rotation complete", logger.OwnerID(ownerID))
package logger
