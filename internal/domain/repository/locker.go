package repository

// AggregateLocker exclusión mutua por agregado (Supplier, Invoice) para llamadores concurrentes.
// La función devuelta libera el bloqueo.
type AggregateLocker interface {
	LockSupplier(id int64) (unlock func())
	LockInvoice(id int64) (unlock func())
}
