package seed

import (
	_ "embed"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed demo.yaml
var demoYAML []byte

// Dataset conjunto de demostración: proveedores con sus condiciones y facturas.
type Dataset struct {
	Suppliers []SupplierSeed `yaml:"suppliers"`
}

type SupplierSeed struct {
	Name                    string          `yaml:"name"`
	Kind                    string          `yaml:"kind"`
	BaseDiscountRate        decimal.Decimal `yaml:"base_discount_rate"`
	CooperativeRate         decimal.Decimal `yaml:"cooperative_rate"`
	CashDiscountRate        decimal.Decimal `yaml:"cash_discount_rate"`
	FrancoThreshold         decimal.Decimal `yaml:"franco_threshold"`
	RangeDiscountEnabled    bool            `yaml:"range_discount_enabled"`
	QuantityDiscountEnabled bool            `yaml:"quantity_discount_enabled"`
	YearEndRebateEnabled    bool            `yaml:"year_end_rebate_enabled"`
	Notes                   string          `yaml:"notes"`
	Conditions              []ConditionSeed `yaml:"conditions"`
	Invoices                []InvoiceSeed   `yaml:"invoices"`
}

type ConditionSeed struct {
	Type        string     `yaml:"type"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	DateStart   string     `yaml:"date_start"`
	DateEnd     string     `yaml:"date_end"`
	Params      ParamsSeed `yaml:"params"`
}

type ParamsSeed struct {
	Threshold *decimal.Decimal `yaml:"threshold"`
	Target    *decimal.Decimal `yaml:"target"`
	Rate      *decimal.Decimal `yaml:"rate"`
	Tiers     []struct {
		MinAmount decimal.Decimal `yaml:"min_amount"`
		Rate      decimal.Decimal `yaml:"rate"`
	} `yaml:"tiers"`
	Ranges []struct {
		Range string          `yaml:"range"`
		Rate  decimal.Decimal `yaml:"rate"`
	} `yaml:"ranges"`
}

type InvoiceSeed struct {
	Number              string          `yaml:"number"`
	Date                string          `yaml:"date"`
	GrossAmount         decimal.Decimal `yaml:"gross_amount"`
	LineDiscountTotal   decimal.Decimal `yaml:"line_discount_total"`
	FooterDiscountTotal decimal.Decimal `yaml:"footer_discount_total"`
	NetAmount           decimal.Decimal `yaml:"net_amount"`
	Lines               []LineSeed      `yaml:"lines"`
}

type LineSeed struct {
	Product     string          `yaml:"product"`
	Code        string          `yaml:"code"`
	Quantity    decimal.Decimal `yaml:"quantity"`
	UnitPrice   decimal.Decimal `yaml:"unit_price"`
	DiscountPct decimal.Decimal `yaml:"discount_pct"`
	NetAmount   decimal.Decimal `yaml:"net_amount"`
}

// LoadDataset decodifica un conjunto YAML. Campos desconocidos son error.
func LoadDataset(r io.Reader) (*Dataset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("seed: decodificar yaml: %w", err)
	}
	return &ds, nil
}

// DemoDataset conjunto embebido en el binario.
func DemoDataset() (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(demoYAML, &ds); err != nil {
		return nil, fmt.Errorf("seed: demo.yaml: %w", err)
	}
	return &ds, nil
}
