// Package verification contiene el motor de verificación de facturas de compra contra las
// condiciones comerciales del proveedor.
//
// El motor es una función pura de (Invoice, Supplier) → []Finding: no lee ni escribe almacenamiento.
// Las reglas se ejecutan siempre, en orden fijo, y de forma independiente:
//
//  1. Descuento agregado   → missing_discount / excessive_discount
//  2. Conciliación del neto → calculation_mismatch
//  3. Franco de portes      → shipping_fee_anomaly
//  4. Descuento por línea   → suspect_price
//
// Las tolerancias son constantes de política, no configurables por proveedor.
package verification
