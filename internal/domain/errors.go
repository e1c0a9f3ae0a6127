package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound       = errors.New("recurso no encontrado")
	ErrValidation     = errors.New("datos inválidos")
	ErrDuplicate      = errors.New("recurso duplicado")
	ErrUnauthorized   = errors.New("no autorizado")
	ErrForbidden      = errors.New("acceso denegado")
	ErrConflict       = errors.New("conflicto con el estado actual")
	ErrNotInitialized = errors.New("almacén no inicializado")
)

// ValidationError campo obligatorio ausente o fuera de rango. Se reporta al llamador, nunca se corrige.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validación: %s", e.Reason)
	}
	return fmt.Sprintf("validación: %s: %s", e.Field, e.Reason)
}

// Is permite errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid construye un ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError referencia a un id inexistente (proveedor, factura, anomalía...).
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d no encontrado", e.Entity, e.ID)
}

// Is permite errors.Is(err, ErrNotFound).
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound construye un NotFoundError.
func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// PersistenceWarning fallo de escritura en el medio durable. El efecto en memoria ya está aplicado;
// nunca se devuelve como error de una mutación.
type PersistenceWarning struct {
	Op  string
	Key string
	Err error
}

func (w *PersistenceWarning) Error() string {
	return fmt.Sprintf("persistencia %s (%s): %v", w.Op, w.Key, w.Err)
}

func (w *PersistenceWarning) Unwrap() error { return w.Err }

// MigrationError payload legado malformado durante la migración de esquema.
type MigrationError struct {
	From int
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migración desde v%d: %v", e.From, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }
