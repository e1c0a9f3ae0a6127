package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Códigos de salida de la CLI.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // verificación con anomalías, fichero rechazado...
	ExitCommandError = 2 // configuración, almacén o argumentos inválidos
)

// ExitError error con código de salida específico.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError crea un ExitError sin causa.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError envuelve err con un código de salida.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extrae el código de salida; ExitFailure si err no es un ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Printer escribe el resultado de un comando en texto o JSON.
type Printer struct {
	Format string
	Writer io.Writer
}

// Print en JSON codifica data; en texto invoca text (si no es nil).
func (p *Printer) Print(data interface{}, text func(w io.Writer)) error {
	if p.Format == "json" {
		enc := json.NewEncoder(p.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	if text != nil {
		text(p.Writer)
		return nil
	}
	_, err := fmt.Fprintln(p.Writer, data)
	return err
}
