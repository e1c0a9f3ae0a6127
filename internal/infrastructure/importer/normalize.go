// Package importer lectores de ficheros de factura de proveedor (CSV con separador ';' y XML).
package importer

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Campos canónicos reconocidos en cabeceras CSV y etiquetas XML.
const (
	fieldNumber         = "numero"
	fieldDate           = "date"
	fieldSupplier       = "fournisseur"
	fieldProduct        = "produit"
	fieldCode           = "code"
	fieldQuantity       = "quantite"
	fieldUnitPrice      = "prix_unitaire"
	fieldDiscount       = "remise"
	fieldLineTotal      = "montant_brut"
	fieldLineNet        = "montant_net"
	fieldGross          = "total_brut"
	fieldLineDiscounts  = "remise_lignes"
	fieldFooterDiscount = "remise_pied"
	fieldNet            = "net_a_payer"
)

// aliases nombre normalizado → campo canónico.
var aliases = map[string]string{
	"numero": fieldNumber, "n facture": fieldNumber, "numero facture": fieldNumber, "facture": fieldNumber, "invoice": fieldNumber,
	"date": fieldDate, "date facture": fieldDate,
	"fournisseur": fieldSupplier, "grossiste": fieldSupplier, "laboratoire": fieldSupplier, "supplier": fieldSupplier,
	"produit": fieldProduct, "designation": fieldProduct, "libelle": fieldProduct, "product": fieldProduct,
	"code": fieldCode, "cip": fieldCode, "cip13": fieldCode, "ean": fieldCode, "code produit": fieldCode,
	"quantite": fieldQuantity, "qte": fieldQuantity, "quantity": fieldQuantity,
	"prix unitaire": fieldUnitPrice, "pu": fieldUnitPrice, "pu ht": fieldUnitPrice, "unit price": fieldUnitPrice,
	"remise": fieldDiscount, "remise pct": fieldDiscount, "discount": fieldDiscount,
	"montant brut": fieldLineTotal, "montant ligne": fieldLineTotal, "total ligne": fieldLineTotal,
	"montant net": fieldLineNet, "net ligne": fieldLineNet,
	"total brut": fieldGross, "brut": fieldGross, "montant brut ht": fieldGross,
	"remise lignes": fieldLineDiscounts, "remises lignes": fieldLineDiscounts,
	"remise pied": fieldFooterDiscount, "remise pied facture": fieldFooterDiscount,
	"net a payer": fieldNet, "net": fieldNet,
}

// normalizeName quita acentos y signos, pasa a minúsculas y colapsa espacios: "N° Facture" → "n facture".
func normalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(plain) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
			space = false
			continue
		}
		space = true
	}
	return b.String()
}

// canonical campo canónico de una cabecera o etiqueta; "" si no se reconoce.
func canonical(name string) string {
	return aliases[normalizeName(name)]
}

// parseAmount acepta "1 234,56", "1.234,56", "1234.56", "12 %", "1 234,56 €".
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '€', '%':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero, fmt.Errorf("importe vacío")
	}
	lastDot, lastComma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	switch {
	case lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastDot > lastComma && lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("importe inválido %q", s)
	}
	return d, nil
}

// optionalAmount nil si el campo está vacío.
func optionalAmount(s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := parseAmount(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

var dateLayouts = []string{"02/01/2006", "2006-01-02", "02-01-2006", "02.01.2006", "02/01/06", time.RFC3339}

// parseDate formatos habituales en exportaciones de proveedores; el resultado es el día civil en UTC.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			u := t.UTC()
			return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("fecha inválida %q", s)
}
