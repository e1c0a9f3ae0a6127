package importer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/pharmaverif-api/internal/application/importing"
	"github.com/jhoicas/pharmaverif-api/internal/domain"
)

var _ importing.Parser = (*XMLParser)(nil)

// XMLParser lee facturas XML de proveedor:
//
//	<facture numero="FA-1" date="2024-05-02">
//	  <fournisseur>OCP</fournisseur>
//	  <lignes><ligne><designation/><code/><quantite/><prix_unitaire/><remise/><montant_net/></ligne></lignes>
//	  <totaux><total_brut/><remise_lignes/><remise_pied/><net_a_payer/></totaux>
//	</facture>
//
// Etiquetas y atributos se reconocen por los mismos alias que las cabeceras CSV, sin distinguir mayúsculas
// ni acentos. Cabecera y totales pueden ir como atributo o como elemento hijo.
type XMLParser struct{}

// NewXMLParser construye el lector.
func NewXMLParser() *XMLParser { return &XMLParser{} }

func (p *XMLParser) Parse(ctx context.Context, r io.Reader) (*importing.ParsedInvoice, error) {
	out := &importing.ParsedInvoice{Format: importing.Format{Kind: "xml", Encoding: "utf-8"}}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(charset) {
		case "iso-8859-1", "iso8859-1", "latin1":
			out.Format.Encoding = "iso-8859-1"
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		case "windows-1252", "cp1252":
			out.Format.Encoding = "windows-1252"
			return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
		case "utf-8", "utf8", "":
			return input, nil
		}
		return nil, fmt.Errorf("codificación no soportada %q", charset)
	}
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, domain.Invalid("file", fmt.Sprintf("xml: %v", err))
	}
	root := doc.Root()
	if root == nil {
		return nil, domain.Invalid("file", "xml: documento sin raíz")
	}

	fields := collect(root)
	out.Number = fields[fieldNumber]
	out.SupplierHint = fields[fieldSupplier]
	if v := fields[fieldDate]; v != "" {
		d, err := parseDate(v)
		if err != nil {
			return nil, domain.Invalid("date", err.Error())
		}
		out.Date = d
	}

	totalsEl := findChild(root, "totaux", "totals")
	totals := fields
	if totalsEl != nil {
		totals = collect(totalsEl)
	}
	var err error
	if out.Totals.Gross, err = optionalAmount(totals[fieldGross]); err != nil {
		return nil, domain.Invalid(fieldGross, err.Error())
	}
	if out.Totals.LineDiscount, err = optionalAmount(totals[fieldLineDiscounts]); err != nil {
		return nil, domain.Invalid(fieldLineDiscounts, err.Error())
	}
	if out.Totals.FooterDiscount, err = optionalAmount(totals[fieldFooterDiscount]); err != nil {
		return nil, domain.Invalid(fieldFooterDiscount, err.Error())
	}
	if out.Totals.Net, err = optionalAmount(totals[fieldNet]); err != nil {
		return nil, domain.Invalid(fieldNet, err.Error())
	}

	linesEl := findChild(root, "lignes", "lines")
	if linesEl == nil {
		linesEl = root
	}
	for i, el := range linesEl.ChildElements() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if n := normalizeName(el.Tag); n != "ligne" && n != "line" {
			continue
		}
		lf := collect(el)
		if lf[fieldProduct] == "" {
			out.Warnings = append(out.Warnings, fmt.Sprintf("ligne %d sin designación ignorada", i+1))
			continue
		}
		line, err := readLine(func(f string) string { return lf[f] })
		if err != nil {
			return nil, domain.Invalid("file", fmt.Sprintf("ligne %d: %v", i+1, err))
		}
		out.Lines = append(out.Lines, line)
	}
	out.Format.Rows = len(out.Lines)
	if out.Number == "" {
		return nil, domain.Invalid("numero", "xml: sin número de factura")
	}
	return out, nil
}

// collect campos canónicos de un elemento: atributos y texto de hijos directos (el primero gana).
func collect(el *etree.Element) map[string]string {
	out := map[string]string{}
	for _, a := range el.Attr {
		if f := canonical(a.Key); f != "" {
			if _, ok := out[f]; !ok {
				out[f] = strings.TrimSpace(a.Value)
			}
		}
	}
	for _, c := range el.ChildElements() {
		f := canonical(c.Tag)
		if f == "" {
			continue
		}
		if _, ok := out[f]; !ok {
			out[f] = strings.TrimSpace(c.Text())
		}
	}
	return out
}

func findChild(el *etree.Element, names ...string) *etree.Element {
	for _, c := range el.ChildElements() {
		n := normalizeName(c.Tag)
		for _, want := range names {
			if n == want {
				return c
			}
		}
	}
	return nil
}
