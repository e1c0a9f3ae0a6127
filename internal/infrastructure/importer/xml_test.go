package importer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/pharmaverif-api/internal/domain"
)

const biogaranXML = `<?xml version="1.0" encoding="UTF-8"?>
<facture numero="BG-5521" date="2024-05-02">
  <fournisseur>Biogaran</fournisseur>
  <lignes>
    <ligne>
      <designation>AMOXICILLINE 1G CPR 14</designation>
      <cip13>3400936588653</cip13>
      <quantite>20</quantite>
      <montant_brut>100,00</montant_brut>
      <remise>10</remise>
    </ligne>
    <ligne><designation/><quantite>1</quantite></ligne>
  </lignes>
  <totaux>
    <total_brut>100,00</total_brut>
    <remise_lignes>10,00</remise_lignes>
    <net_a_payer>90,00</net_a_payer>
  </totaux>
</facture>`

func TestXMLParser_UTF8(t *testing.T) {
	p, err := NewXMLParser().Parse(context.Background(), strings.NewReader(biogaranXML))
	require.NoError(t, err)

	assert.Equal(t, "BG-5521", p.Number)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), p.Date)
	assert.Equal(t, "Biogaran", p.SupplierHint)
	assert.Equal(t, "xml", p.Format.Kind)
	assert.Equal(t, "utf-8", p.Format.Encoding)
	assert.Equal(t, []string{"ligne 2 sin designación ignorada"}, p.Warnings)

	require.Len(t, p.Lines, 1)
	l := p.Lines[0]
	assert.Equal(t, "AMOXICILLINE 1G CPR 14", l.Product)
	assert.Equal(t, "3400936588653", l.ProductCode)
	assert.Nil(t, l.UnitPrice)
	require.NotNil(t, l.LineTotal)
	assert.True(t, d("100").Equal(*l.LineTotal))
	assert.True(t, d("10").Equal(l.DiscountPct))

	assert.True(t, d("100").Equal(*p.Totals.Gross))
	assert.True(t, d("10").Equal(*p.Totals.LineDiscount))
	assert.Nil(t, p.Totals.FooterDiscount)
	assert.True(t, d("90").Equal(*p.Totals.Net))
}

func TestXMLParser_Latin1(t *testing.T) {
	src := `<?xml version="1.0" encoding="ISO-8859-1"?>
<Facture>
  <Numéro>LAB-12</Numéro>
  <Date>02/05/2024</Date>
  <Laboratoire>Laboratoires Gilbert</Laboratoire>
  <Lignes>
    <Ligne Désignation="SÉRUM PHYSIOLOGIQUE" Qté="30" PU="0,12"/>
  </Lignes>
</Facture>`
	encoded, err := charmap.ISO8859_1.NewEncoder().String(src)
	require.NoError(t, err)

	p, err := NewXMLParser().Parse(context.Background(), strings.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, "iso-8859-1", p.Format.Encoding)
	assert.Equal(t, "LAB-12", p.Number)
	assert.Equal(t, "Laboratoires Gilbert", p.SupplierHint)
	require.Len(t, p.Lines, 1)
	assert.Equal(t, "SÉRUM PHYSIOLOGIQUE", p.Lines[0].Product)
	assert.True(t, d("0.12").Equal(*p.Lines[0].UnitPrice))
	assert.True(t, d("30").Equal(p.Lines[0].Quantity))
}

func TestXMLParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"malformado", "<facture><ligne></facture>", "xml"},
		{"sin número", `<facture date="2024-05-02"><lignes/></facture>`, "número"},
		{"importe inválido", `<facture numero="X"><lignes><ligne><designation>A</designation><quantite>uno</quantite></ligne></lignes></facture>`, "ligne 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewXMLParser().Parse(context.Background(), strings.NewReader(tt.src))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
