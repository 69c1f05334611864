// Package logger provides a singleton Zap logger with context-based scoping.
//
// # Design Decisions
//
//   - Singleton: Una sola instancia global inicializada con Init().
//   - Context Scoping: cada request lleva su logger "scoped" con request_id,
//     context_id y los campos del flow sin crear un nuevo core.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//   - Datos sensibles: emails siempre enmascarados (Email), tokens solo como
//     referencia de hash (TokenRef).
//
// # Usage
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{
//	    Env:   cfg.Log.Env,   // "dev" o "prod"
//	    Level: cfg.Log.Level, // "debug", "info", "warn", "error"
//	})
//	defer logger.Sync()
//
// En flows/services (con contexto):
//
//	log := logger.From(ctx).With(logger.Op("reset_password.submit"))
//	log.Info("password reset applied", logger.Email(email))
package logger
