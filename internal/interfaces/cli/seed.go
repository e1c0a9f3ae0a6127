package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pharmaverif-api/internal/application/seed"
	"github.com/jhoicas/pharmaverif-api/internal/bootstrap"
)

// SeedOptions flags del comando seed.
type SeedOptions struct {
	*RootOptions
	File  string
	Force bool
}

// NewSeedCommand siembra el conjunto de demostración (o un YAML propio).
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Crear proveedores, condiciones y facturas de ejemplo",
		Long: `Crea el conjunto de demostración embebido (o el indicado con --file) y verifica cada factura.
Sin --force no hace nada si ya existe algún proveedor.

Ejemplo:
  pharmaverif seed
  pharmaverif seed --file ./contrats-2025.yaml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "YAML con proveedores, condiciones y facturas")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "sembrar aunque el almacén no esté vacío")
	return cmd
}

func runSeed(cmd *cobra.Command, opts *SeedOptions) error {
	ctx := commandContext(cmd)
	return opts.withServices(ctx, func(svc *bootstrap.Services) error {
		var (
			rep *seed.Report
			err error
		)
		switch {
		case opts.File != "":
			f, ferr := os.Open(opts.File)
			if ferr != nil {
				return WrapExitError(ExitCommandError, "abrir dataset", ferr)
			}
			defer f.Close()
			ds, derr := seed.LoadDataset(f)
			if derr != nil {
				return WrapExitError(ExitCommandError, "leer dataset", derr)
			}
			rep, err = seedDataset(cmd, svc, ds, opts.Force)
		case opts.Force:
			ds, derr := seed.DemoDataset()
			if derr != nil {
				return derr
			}
			rep, err = svc.Seed.Seed(ctx, ds)
		default:
			rep, err = svc.Seed.SeedIfEmpty(ctx)
		}
		if err != nil {
			return WrapExitError(ExitFailure, "sembrar", err)
		}
		return opts.printer().Print(rep, func(w io.Writer) {
			if rep.Skipped {
				fmt.Fprintln(w, "almacén no vacío: nada que sembrar (usar --force)")
				return
			}
			fmt.Fprintf(w, "proveedores: %d  condiciones: %d  facturas: %d\n", rep.Suppliers, rep.Conditions, rep.Invoices)
			if v := rep.Verification; v != nil {
				fmt.Fprintf(w, "verificadas: %d  conformes: %d  con anomalías: %d\n", v.Verified, v.Compliant, v.Anomalous)
				for _, f := range v.Failed {
					fmt.Fprintf(w, "  fallo: %s\n", f)
				}
			}
		})
	})
}

func seedDataset(cmd *cobra.Command, svc *bootstrap.Services, ds *seed.Dataset, force bool) (*seed.Report, error) {
	ctx := commandContext(cmd)
	if !force {
		empty, err := svc.Seed.IsEmpty(ctx)
		if err != nil {
			return nil, err
		}
		if !empty {
			return &seed.Report{Skipped: true}, nil
		}
	}
	return svc.Seed.Seed(ctx, ds)
}
