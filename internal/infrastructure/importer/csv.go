package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/pharmaverif-api/internal/application/importing"
	"github.com/jhoicas/pharmaverif-api/internal/domain"
)

var _ importing.Parser = (*CSVParser)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVParser lee exportaciones CSV de proveedor: separador ';', una fila por línea de factura,
// cabecera con nombres fijos (ver aliases). Número, fecha y proveedor se toman de la primera fila que
// los informa; los totales, de la primera fila con valor en cada columna de total. Un fichero que no es
// UTF-8 válido se decodifica como Windows-1252.
type CSVParser struct {
	Comma rune
}

// NewCSVParser construye el lector con separador ';'.
func NewCSVParser() *CSVParser { return &CSVParser{Comma: ';'} }

func (p *CSVParser) Parse(ctx context.Context, r io.Reader) (*importing.ParsedInvoice, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("csv: leer: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	out := &importing.ParsedInvoice{Format: importing.Format{Kind: "csv", Encoding: "utf-8"}}
	if !utf8.Valid(raw) {
		raw, err = io.ReadAll(transform.NewReader(bytes.NewReader(raw), charmap.Windows1252.NewDecoder()))
		if err != nil {
			return nil, fmt.Errorf("csv: decodificar windows-1252: %w", err)
		}
		out.Format.Encoding = "windows-1252"
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.Comma = p.Comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.Invalid("file", "fichero vacío")
	}
	if err != nil {
		return nil, domain.Invalid("file", fmt.Sprintf("cabecera: %v", err))
	}
	cols := map[string]int{}
	for i, h := range header {
		f := canonical(h)
		if f == "" {
			out.Warnings = append(out.Warnings, fmt.Sprintf("columna ignorada %q", strings.TrimSpace(h)))
			continue
		}
		if _, dup := cols[f]; !dup {
			cols[f] = i
		}
	}
	for _, req := range []string{fieldNumber, fieldProduct, fieldQuantity} {
		if _, ok := cols[req]; !ok {
			return nil, domain.Invalid("file", fmt.Sprintf("columna obligatoria ausente: %s", req))
		}
	}

	rowNum := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			return nil, domain.Invalid("file", fmt.Sprintf("fila %d: %v", rowNum, err))
		}
		get := func(f string) string {
			i, ok := cols[f]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		if isBlank(rec) {
			continue
		}
		if err := readHeaderFields(out, get); err != nil {
			return nil, domain.Invalid("file", fmt.Sprintf("fila %d: %v", rowNum, err))
		}
		if get(fieldProduct) == "" {
			continue
		}
		line, err := readLine(get)
		if err != nil {
			return nil, domain.Invalid("file", fmt.Sprintf("fila %d: %v", rowNum, err))
		}
		out.Lines = append(out.Lines, line)
	}
	out.Format.Rows = len(out.Lines)
	if out.Number == "" {
		return nil, domain.Invalid("numero", "ninguna fila indica el número de factura")
	}
	return out, nil
}

// readHeaderFields rellena cabecera y totales con el primer valor no vacío de cada columna.
func readHeaderFields(out *importing.ParsedInvoice, get func(string) string) error {
	if out.Number == "" {
		out.Number = get(fieldNumber)
	}
	if out.SupplierHint == "" {
		out.SupplierHint = get(fieldSupplier)
	}
	if out.Date.IsZero() && get(fieldDate) != "" {
		d, err := parseDate(get(fieldDate))
		if err != nil {
			return err
		}
		out.Date = d
	}
	totals := []struct {
		field string
		dst   **decimal.Decimal
	}{
		{fieldGross, &out.Totals.Gross},
		{fieldLineDiscounts, &out.Totals.LineDiscount},
		{fieldFooterDiscount, &out.Totals.FooterDiscount},
		{fieldNet, &out.Totals.Net},
	}
	for _, t := range totals {
		if *t.dst != nil {
			continue
		}
		v, err := optionalAmount(get(t.field))
		if err != nil {
			return fmt.Errorf("%s: %w", t.field, err)
		}
		*t.dst = v
	}
	return nil
}

func readLine(get func(string) string) (importing.ParsedLine, error) {
	l := importing.ParsedLine{Product: get(fieldProduct), ProductCode: get(fieldCode)}
	q, err := parseAmount(get(fieldQuantity))
	if err != nil {
		return l, fmt.Errorf("%s: %w", fieldQuantity, err)
	}
	l.Quantity = q
	if l.UnitPrice, err = optionalAmount(get(fieldUnitPrice)); err != nil {
		return l, fmt.Errorf("%s: %w", fieldUnitPrice, err)
	}
	if disc, err := optionalAmount(get(fieldDiscount)); err != nil {
		return l, fmt.Errorf("%s: %w", fieldDiscount, err)
	} else if disc != nil {
		l.DiscountPct = *disc
	}
	if l.LineTotal, err = optionalAmount(get(fieldLineTotal)); err != nil {
		return l, fmt.Errorf("%s: %w", fieldLineTotal, err)
	}
	if l.NetAmount, err = optionalAmount(get(fieldLineNet)); err != nil {
		return l, fmt.Errorf("%s: %w", fieldLineNet, err)
	}
	return l, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
