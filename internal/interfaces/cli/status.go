package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pharmaverif-api/internal/bootstrap"
)

type statusView struct {
	Driver        string `json:"driver"`
	Key           string `json:"key"`
	Source        string `json:"source"`
	SchemaVersion int    `json:"schema_version"`
	Suppliers     int    `json:"suppliers"`
	Conditions    int    `json:"conditions"`
	Invoices      int    `json:"invoices"`
	Lines         int    `json:"lines"`
	Anomalies     int    `json:"anomalies"`
	Migrated      bool   `json:"migrated"`
	Dropped       int    `json:"dropped_orphans,omitempty"`
	Quarantine    string `json:"quarantine,omitempty"`
	LastWarning   string `json:"last_warning,omitempty"`
}

// NewStatusCommand muestra el estado del almacén (origen de la carga, migración, recuentos).
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Estado del almacén de registros",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.config()
			if err != nil {
				return err
			}
			return rootOpts.withServices(commandContext(cmd), func(svc *bootstrap.Services) error {
				st := svc.Store.Status()
				v := statusView{
					Driver:        cfg.Store.Driver,
					Key:           st.Key,
					Source:        string(st.Source),
					SchemaVersion: st.SchemaVersion,
					Suppliers:     st.Suppliers,
					Conditions:    st.Conditions,
					Invoices:      st.Invoices,
					Lines:         st.Lines,
					Anomalies:     st.Anomalies,
				}
				if st.Quarantined {
					v.Quarantine = svc.Store.QuarantineKey()
				}
				if st.LastWarning != nil {
					v.LastWarning = st.LastWarning.Error()
				}
				if st.Migration != nil {
					v.Migrated = true
					v.Dropped = st.Migration.DroppedOrphans
				}
				return rootOpts.printer().Print(v, func(w io.Writer) {
					fmt.Fprintf(w, "medio: %s  clave: %s  origen: %s  esquema: v%d\n", v.Driver, v.Key, v.Source, v.SchemaVersion)
					fmt.Fprintf(w, "proveedores: %d  condiciones: %d  facturas: %d  líneas: %d  anomalías: %d\n",
						v.Suppliers, v.Conditions, v.Invoices, v.Lines, v.Anomalies)
					if v.Migrated {
						fmt.Fprintf(w, "migrado desde v1 (%d registros huérfanos descartados)\n", v.Dropped)
					}
					if v.Quarantine != "" {
						fmt.Fprintf(w, "snapshot corrupto conservado en %s\n", v.Quarantine)
					}
					if v.LastWarning != "" {
						fmt.Fprintf(w, "último aviso de persistencia: %s\n", v.LastWarning)
					}
				})
			})
		},
	}
}
