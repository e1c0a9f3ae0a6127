package recordstore

import (
	"context"
	"errors"
	"sync"
)

// Medium almacenamiento durable clave/valor sobre el que el Store vuelca su snapshot.
// Implementaciones: MemoryMedium (tests), sqlite.Medium, postgres.KVMedium.
type Medium interface {
	// Get devuelve (nil, false, nil) si la clave no existe.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ErrMediumClosed operación sobre un medio ya cerrado.
var ErrMediumClosed = errors.New("medio cerrado")

// MemoryMedium medio en memoria. Permite inyectar fallos de escritura/lectura en tests.
type MemoryMedium struct {
	mu      sync.Mutex
	data    map[string][]byte
	closed  bool
	failSet error
	failGet error
	failDel error
	writes  int
}

// NewMemoryMedium crea un medio vacío.
func NewMemoryMedium() *MemoryMedium {
	return &MemoryMedium{data: map[string][]byte{}}
}

func (m *MemoryMedium) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false, ErrMediumClosed
	}
	if m.failGet != nil {
		return nil, false, m.failGet
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryMedium) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrMediumClosed
	}
	if m.failSet != nil {
		return m.failSet
	}
	m.data[key] = append([]byte(nil), value...)
	m.writes++
	return nil
}

func (m *MemoryMedium) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrMediumClosed
	}
	if m.failDel != nil {
		return m.failDel
	}
	delete(m.data, key)
	return nil
}

func (m *MemoryMedium) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Put escribe directamente (siembra de payloads legados en tests).
func (m *MemoryMedium) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
}

// Raw lee directamente sin pasar por los fallos inyectados.
func (m *MemoryMedium) Raw(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

// FailWrites hace que Set devuelva err (nil restablece).
func (m *MemoryMedium) FailWrites(err error) {
	m.mu.Lock()
	m.failSet = err
	m.mu.Unlock()
}

// FailReads hace que Get devuelva err (nil restablece).
func (m *MemoryMedium) FailReads(err error) {
	m.mu.Lock()
	m.failGet = err
	m.mu.Unlock()
}

// FailDeletes hace que Delete devuelva err (nil restablece).
func (m *MemoryMedium) FailDeletes(err error) {
	m.mu.Lock()
	m.failDel = err
	m.mu.Unlock()
}

// Writes número de escrituras exitosas.
func (m *MemoryMedium) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
