package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pharmaverif-api/internal/bootstrap"
)

// ImportOptions flags del comando import.
type ImportOptions struct {
	*RootOptions
	SupplierID int64
	Verify     bool
}

// NewImportCommand importa un fichero de factura de proveedor.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Importar una factura desde un export CSV (';') o XML del proveedor",
		Long: `Importa una factura. Sin --supplier el proveedor se busca por el nombre que indica el fichero.

Ejemplo:
  pharmaverif import ./ocp_mai.csv --verify
  pharmaverif import ./biogaran_330.xml --supplier 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args[0])
		},
	}
	cmd.Flags().Int64Var(&opts.SupplierID, "supplier", 0, "id del proveedor")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "verificar la factura tras importarla")
	return cmd
}

func runImport(cmd *cobra.Command, opts *ImportOptions, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "abrir fichero", err)
	}
	defer f.Close()

	ctx := commandContext(cmd)
	return opts.withServices(ctx, func(svc *bootstrap.Services) error {
		res, err := svc.Import.Import(ctx, opts.SupplierID, filepath.Base(path), f, opts.Verify)
		if err != nil {
			return WrapExitError(ExitFailure, "importar", err)
		}
		return opts.printer().Print(res, func(w io.Writer) {
			fmt.Fprintf(w, "importada factura %d %s (%s, lote %s)\n", res.Invoice.ID, res.Invoice.Number, res.Format, res.BatchID)
			for _, warn := range res.Warnings {
				fmt.Fprintf(w, "  aviso: %s\n", warn)
			}
			if res.Verification != nil {
				printVerification(w, res.Verification)
			}
		})
	})
}
