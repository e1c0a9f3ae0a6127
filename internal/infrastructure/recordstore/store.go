// Package recordstore implementa el almacén versionado de proveedores, condiciones, facturas, líneas y
// anomalías. El estado autoritativo vive en memoria; tras cada mutación el snapshot completo se escribe
// de forma síncrona en un Medium durable. Al cargar, un payload legado v1 se migra una sola vez a v2.
package recordstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/internal/domain/repository"
	"github.com/jhoicas/pharmaverif-api/pkg/logger"
)

// DefaultKeyPrefix prefijo de claves por defecto.
const DefaultKeyPrefix = "pharmaverif"

// ErrClosed el almacén ya fue cerrado.
var ErrClosed = errors.New("almacén cerrado")

// Options configuración del Store.
type Options struct {
	KeyPrefix string
	Logger    *logger.Logger
	// Now reloj para timestamps y vigencia de condiciones. Por defecto time.Now.
	Now func() time.Time
	// OnWarning se invoca (bajo el lock de escritura) por cada fallo de persistencia.
	OnWarning func(*domain.PersistenceWarning)
}

// LoadSource origen del estado tras Initialize.
type LoadSource string

const (
	LoadedFresh    LoadSource = "fresh"
	LoadedCurrent  LoadSource = "v2"
	LoadedMigrated LoadSource = "migrated_v1"
)

// Store almacén de registros. Seguro para llamadores concurrentes.
type Store struct {
	medium    Medium
	log       *logger.Logger
	now       func() time.Time
	onWarning func(*domain.PersistenceWarning)
	keyLegacy string
	keyV2     string

	mu     sync.RWMutex
	st     *state
	ready  bool
	closed bool
	source LoadSource
	migr   *MigrationReport

	// quarantined el snapshot v2 leído era ilegible y se copió a QuarantineKey.
	quarantined bool

	lastWarning atomic.Pointer[domain.PersistenceWarning]
	locks       keyedLocks
}

// New construye el almacén sin cargar nada. Llamar a Initialize antes de operar.
func New(medium Medium, opts Options) *Store {
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		medium:    medium,
		log:       log.Component("recordstore"),
		now:       func() time.Time { return now().UTC() },
		onWarning: opts.OnWarning,
		keyLegacy: prefix + "_db",
		keyV2:     prefix + "_db_v2",
		locks:     keyedLocks{m: map[string]*lockEntry{}},
	}
}

// Keys devuelve las claves legado y actual.
func (s *Store) Keys() (legacy, current string) { return s.keyLegacy, s.keyV2 }

// Initialize carga el estado: snapshot v2 si existe; si no, migra el payload legado; si no, estado vacío.
// Un fallo de lectura del medio devuelve error y el almacén sigue sin inicializar (se puede reintentar).
// Un snapshot v2 corrupto se copia a
// QuarantineKey antes de arrancar vacío; si esa copia falla, Initialize devuelve error.
// Una migración fallida conserva la clave legada y arranca vacío.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.ready {
		return errors.New("almacén ya inicializado")
	}

	st, source, err := s.load(ctx)
	if err != nil {
		return err
	}
	s.st, s.source = st, source
	s.ready = true
	s.log.Info().
		Str("source", string(s.source)).
		Int("suppliers", len(s.st.suppliers)).
		Int("invoices", len(s.st.invoices)).
		Int("anomalies", len(s.st.anomalies)).
		Msg("almacén inicializado")
	return nil
}

// QuarantineKey clave donde se conserva un snapshot v2 ilegible.
func (s *Store) QuarantineKey() string { return s.keyV2 + "_corrupt" }

func (s *Store) load(ctx context.Context) (*state, LoadSource, error) {
	raw, ok, err := s.medium.Get(ctx, s.keyV2)
	if err != nil {
		s.warn(&domain.PersistenceWarning{Op: "read", Key: s.keyV2, Err: err})
		return nil, "", fmt.Errorf("leer %s: %w", s.keyV2, err)
	}
	if ok {
		st, decErr := decodeSnapshot(raw)
		if decErr == nil {
			return st, LoadedCurrent, nil
		}
		if err := s.medium.Set(ctx, s.QuarantineKey(), raw); err != nil {
			s.warn(&domain.PersistenceWarning{Op: "write", Key: s.QuarantineKey(), Err: err})
			return nil, "", fmt.Errorf("snapshot %s corrupto y no se pudo poner en cuarentena: %w", s.keyV2, errors.Join(decErr, err))
		}
		s.quarantined = true
		s.log.Error().Err(decErr).Str("key", s.keyV2).Str("quarantine", s.QuarantineKey()).
			Msg("snapshot v2 corrupto; copiado a cuarentena, se inicia vacío")
		return newState(), LoadedFresh, nil
	}

	raw, ok, err = s.medium.Get(ctx, s.keyLegacy)
	if err != nil {
		s.warn(&domain.PersistenceWarning{Op: "read", Key: s.keyLegacy, Err: err})
		return nil, "", fmt.Errorf("leer %s: %w", s.keyLegacy, err)
	}
	if !ok {
		return newState(), LoadedFresh, nil
	}

	st, rep, err := migrateV1(raw, s.now())
	if err != nil {
		var me *domain.MigrationError
		if errors.As(err, &me) {
			s.log.Error().Err(err).Str("key", s.keyLegacy).Msg("migración abandonada; se conserva la clave legada")
		}
		return newState(), LoadedFresh, nil
	}

	if s.persistLocked(ctx, st) {
		if err := s.medium.Delete(ctx, s.keyLegacy); err != nil {
			s.warn(&domain.PersistenceWarning{Op: "delete", Key: s.keyLegacy, Err: err})
		} else {
			rep.LegacyKeyDeleted = true
		}
	}
	s.migr = &rep
	s.log.Info().
		Int("suppliers", rep.Suppliers).
		Int("invoices", rep.Invoices).
		Int("dropped_orphans", rep.DroppedOrphans).
		Msg("migración v1 → v2 completada")
	return st, LoadedMigrated, nil
}

// Close cierra el medio. Las operaciones posteriores fallan con ErrNotInitialized.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.ready = false
	return s.medium.Close()
}

// LastWarning último fallo de persistencia (nil si ninguno).
func (s *Store) LastWarning() *domain.PersistenceWarning {
	return s.lastWarning.Load()
}

// Status resumen del almacén para diagnóstico.
type Status struct {
	Ready         bool
	SchemaVersion int
	Key           string
	Source        LoadSource
	Migration     *MigrationReport
	Quarantined   bool
	Suppliers     int
	Conditions    int
	Invoices      int
	Lines         int
	Anomalies     int
	NextIDs       NextIDs
	LastWarning   *domain.PersistenceWarning
}

func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Status{Ready: s.ready, SchemaVersion: SchemaVersion, Key: s.keyV2, Source: s.source, Quarantined: s.quarantined, LastWarning: s.LastWarning()}
	if s.migr != nil {
		m := *s.migr
		out.Migration = &m
	}
	if s.st != nil {
		out.Suppliers = len(s.st.suppliers)
		out.Conditions = len(s.st.conditions)
		out.Invoices = len(s.st.invoices)
		out.Lines = len(s.st.lines)
		out.Anomalies = len(s.st.anomalies)
		out.NextIDs = s.st.next
	}
	return out
}

// read ejecuta fn bajo el lock de lectura.
func (s *Store) read(fn func(st *state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return domain.ErrNotInitialized
	}
	return fn(s.st)
}

// write ejecuta fn bajo el lock de escritura y, si no hubo error, persiste el snapshot.
// fn debe validar todo antes de mutar: un error implica que el estado no cambió.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return domain.ErrNotInitialized
	}
	if err := fn(s.st); err != nil {
		return err
	}
	s.persistLocked(ctx, s.st)
	return nil
}

// persistLocked escribe el snapshot completo. Un fallo se convierte en PersistenceWarning, nunca en error.
func (s *Store) persistLocked(ctx context.Context, st *state) bool {
	data, err := encodeSnapshot(st)
	if err != nil {
		s.warn(&domain.PersistenceWarning{Op: "encode", Key: s.keyV2, Err: err})
		return false
	}
	if err := s.medium.Set(ctx, s.keyV2, data); err != nil {
		s.warn(&domain.PersistenceWarning{Op: "write", Key: s.keyV2, Err: err})
		return false
	}
	return true
}

func (s *Store) warn(w *domain.PersistenceWarning) {
	s.lastWarning.Store(w)
	s.log.Warn().Err(w.Err).Str("op", w.Op).Str("key", w.Key).Msg("fallo de persistencia; el cambio sigue aplicado en memoria")
	if s.onWarning != nil {
		s.onWarning(w)
	}
}

var _ repository.AggregateLocker = (*Store)(nil)

// LockSupplier exclusión mutua sobre un proveedor (borrado en cascada).
func (s *Store) LockSupplier(id int64) func() { return s.locks.lock(fmt.Sprintf("supplier:%d", id)) }

// LockInvoice exclusión mutua sobre una factura (re-verificación, borrado en cascada).
func (s *Store) LockInvoice(id int64) func() { return s.locks.lock(fmt.Sprintf("invoice:%d", id)) }

// Suppliers, Conditions, Invoices y Anomalies exponen los puertos de repositorio.
func (s *Store) Suppliers() *SupplierRepo   { return &SupplierRepo{s: s} }
func (s *Store) Conditions() *ConditionRepo { return &ConditionRepo{s: s} }
func (s *Store) Invoices() *InvoiceRepo     { return &InvoiceRepo{s: s} }
func (s *Store) Anomalies() *AnomalyRepo    { return &AnomalyRepo{s: s} }

type keyedLocks struct {
	mu sync.Mutex
	m  map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedLocks) lock(key string) func() {
	k.mu.Lock()
	e, ok := k.m[key]
	if !ok {
		e = &lockEntry{}
		k.m[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			k.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(k.m, key)
			}
			k.mu.Unlock()
		})
	}
}
