package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pharmaverif-api/internal/application/dto"
	"github.com/jhoicas/pharmaverif-api/internal/bootstrap"
)

// VerifyOptions flags del comando verify.
type VerifyOptions struct {
	*RootOptions
	All bool
}

// NewVerifyCommand verifica una factura o todas.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify [invoice-id]",
		Short: "Verificar facturas contra las condiciones del proveedor",
		Long: `Verifica una factura (o todas con --all) y sustituye sus anomalías.
Sale con código 1 si la factura indicada tiene anomalías.

Ejemplo:
  pharmaverif verify 12
  pharmaverif verify --all --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.All == (len(args) == 1) {
				return NewExitError(ExitCommandError, "indicar un id de factura o --all")
			}
			if opts.All {
				return runVerifyAll(cmd, opts)
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return NewExitError(ExitCommandError, fmt.Sprintf("id de factura inválido %q", args[0]))
			}
			return runVerifyOne(cmd, opts, id)
		},
	}
	cmd.Flags().BoolVar(&opts.All, "all", false, "verificar todas las facturas")
	return cmd
}

func runVerifyOne(cmd *cobra.Command, opts *VerifyOptions, id int64) error {
	ctx := commandContext(cmd)
	return opts.withServices(ctx, func(svc *bootstrap.Services) error {
		res, err := svc.Verification.Verify(ctx, id)
		if err != nil {
			return WrapExitError(ExitCommandError, "verificar", err)
		}
		if err := opts.printer().Print(res, func(w io.Writer) { printVerification(w, res) }); err != nil {
			return err
		}
		if len(res.Anomalies) > 0 {
			return NewExitError(ExitFailure, fmt.Sprintf("factura %s con %d anomalías", res.Invoice.Number, len(res.Anomalies)))
		}
		return nil
	})
}

func runVerifyAll(cmd *cobra.Command, opts *VerifyOptions) error {
	ctx := commandContext(cmd)
	return opts.withServices(ctx, func(svc *bootstrap.Services) error {
		res, err := svc.Verification.VerifyAll(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "verificar todas", err)
		}
		return opts.printer().Print(res, func(w io.Writer) {
			fmt.Fprintf(w, "verificadas: %d  conformes: %d  con anomalías: %d\n", res.Verified, res.Compliant, res.Anomalous)
			for _, f := range res.Failed {
				fmt.Fprintf(w, "  fallo: %s\n", f)
			}
		})
	})
}

func printVerification(w io.Writer, res *dto.VerificationResponse) {
	supplier := ""
	if res.Invoice.Supplier != nil {
		supplier = res.Invoice.Supplier.Name
	}
	fmt.Fprintf(w, "factura %d %s (%s): %s\n", res.Invoice.ID, res.Invoice.Number, supplier, res.Invoice.Status)
	for _, a := range res.Anomalies {
		fmt.Fprintf(w, "  [%s] %s %s €: %s\n", a.Severity, a.Type, a.Amount.StringFixed(2), a.Description)
	}
}
