package logger

import (
	"time"

	"go.uber.org/zap"
)

// ───────── HTTP ─────────

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field { return zap.String("request_id", v) }

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field { return zap.String("method", v) }

// Path crea un campo para el path del request.
func Path(v string) zap.Field { return zap.String("path", v) }

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field { return zap.Int("status", v) }

// Duration crea un campo para la duración de una operación.
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// ClientIP crea un campo para la IP del cliente.
func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// ───────── Negocio ─────────

// OwnerID crea un campo para el ID del principal dueño del recurso.
func OwnerID(v string) zap.Field { return zap.String("owner_id", v) }

// RecordID crea un campo para el ID de un refresh record.
func RecordID(v string) zap.Field { return zap.String("record_id", v) }

// ProviderKind crea un campo para el tipo de proveedor (worker, company, ...).
func ProviderKind(v string) zap.Field { return zap.String("provider_kind", v) }

// Reason crea un campo para el reason code de una denegación.
func Reason(v string) zap.Field { return zap.String("reason", v) }

// GateMode crea un campo para el modo del subscription gate.
func GateMode(v string) zap.Field { return zap.String("gate_mode", v) }

// Email crea un campo para el email (usar con cuidado en prod).
func Email(v string) zap.Field { return zap.String("email", v) }

// ───────── Sistema ─────────

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field { return zap.String("component", v) }

// Op crea un campo para la operación actual.
func Op(v string) zap.Field { return zap.String("op", v) }

// Layer crea un campo para la capa (controller, service, repository).
func Layer(v string) zap.Field { return zap.String("layer", v) }

// Err crea un campo para un error.
func Err(err error) zap.Field { return zap.Error(err) }

// Count crea un campo para un conteo.
func Count(v int) zap.Field { return zap.Int("count", v) }

// String crea un campo string genérico.
func String(key, v string) zap.Field { return zap.String(key, v) }

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field { return zap.Any(key, v) }
