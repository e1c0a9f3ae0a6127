package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pharmaverif-api/internal/bootstrap"
)

// ReportOptions flags del comando report.
type ReportOptions struct {
	*RootOptions
	Output string
}

// NewReportCommand genera la reclamación PDF de una factura verificada.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report <invoice-id>",
		Short: "Generar la reclamación PDF de una factura",
		Long: `Genera el PDF con las anomalías pendientes de una factura ya verificada.
Con -o apuntando a un directorio (o sin -o) se usa el nombre propuesto.

Ejemplo:
  pharmaverif report 12 -o ./reclamations/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return NewExitError(ExitCommandError, fmt.Sprintf("id de factura inválido %q", args[0]))
			}
			return runReport(cmd, opts, id)
		},
	}
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "fichero o directorio de salida")
	return cmd
}

func runReport(cmd *cobra.Command, opts *ReportOptions, id int64) error {
	ctx := commandContext(cmd)
	return opts.withServices(ctx, func(svc *bootstrap.Services) error {
		pdf, filename, err := svc.Claims.DownloadClaimPDF(ctx, id)
		if err != nil {
			return WrapExitError(ExitFailure, "generar reclamación", err)
		}
		path := opts.Output
		if path == "" {
			path = filename
		} else if fi, statErr := os.Stat(path); statErr == nil && fi.IsDir() {
			path = filepath.Join(path, filename)
		}
		if err := os.WriteFile(path, pdf, 0o644); err != nil {
			return WrapExitError(ExitCommandError, "escribir PDF", err)
		}
		return opts.printer().Print(map[string]interface{}{"file": path, "bytes": len(pdf)}, nil)
	})
}
