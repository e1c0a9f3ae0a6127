package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pharmaverif-api/internal/bootstrap"
)

// NewStatsCommand muestra los agregados globales.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Estadísticas globales de facturas y anomalías",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			return rootOpts.withServices(ctx, func(svc *bootstrap.Services) error {
				st, err := svc.Stats.Stats(ctx)
				if err != nil {
					return err
				}
				return rootOpts.printer().Print(st, func(w io.Writer) {
					fmt.Fprintf(w, "facturas: %d  anomalías: %d (pendientes %d)\n", st.TotalInvoices, st.TotalAnomalies, st.UnresolvedAnomalies)
					fmt.Fprintf(w, "importe recuperable: %s €  conformidad: %s %%\n", st.RecoverableAmount.StringFixed(2), st.ComplianceRate.StringFixed(2))
					printCounts(w, "por estado", st.InvoicesByStatus)
					printCounts(w, "por tipo", st.AnomaliesByType)
				})
			})
		},
	}
}

func printCounts(w io.Writer, title string, m map[string]int) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-22s %d\n", k, m[k])
	}
}
