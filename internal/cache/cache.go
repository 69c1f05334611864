// Package cache provee un key/value mínimo con soporte multi-backend.
//
// Soporta:
//   - Memory (in-process, go-cache; para desarrollo/testing o un solo nodo)
//   - Redis (distribuido, para producción)
//
// Lo usan el PendingEmailStore y el registro de flows.
package cache

import (
	"context"
	"errors"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor con TTL opcional.
	// Si ttl es 0, no expira.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete elimina una key. Borrar una key inexistente no es error.
	Delete(ctx context.Context, key string) error

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close cierra la conexión.
	Close() error

	// Driver devuelve "memory" o "redis".
	Driver() string
}

// Config configuración para crear un cliente de cache.
type Config struct {
	Driver   string // "memory" | "redis"
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string // Prefijo para todas las keys
}

// ErrNotFound se devuelve cuando la key no existe o expiró.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// New crea un cliente de cache según la configuración.
func New(cfg Config) (Client, error) {
	switch cfg.Driver {
	case "redis":
		rdb, err := Dial(cfg)
		if err != nil {
			return nil, err
		}
		return NewRedis(rdb, cfg.Prefix), nil
	case "memory", "":
		return NewMemory(cfg.Prefix), nil
	default:
		return nil, errors.New("cache: unknown driver " + cfg.Driver)
	}
}

func prefixed(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + ":" + k
}
