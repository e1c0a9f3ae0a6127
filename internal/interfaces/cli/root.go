// Package cli comandos de operador sobre el mismo almacén que sirve la API.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pharmaverif-api/internal/bootstrap"
	"github.com/jhoicas/pharmaverif-api/pkg/config"
	"github.com/jhoicas/pharmaverif-api/pkg/logger"
)

// RootOptions flags globales y dependencias inyectables (tests).
type RootOptions struct {
	Verbose bool
	Format  string // "text" | "json"

	// LoadConfig por defecto config.Load.
	LoadConfig func() (*config.Config, error)
	Out        io.Writer
	ErrOut     io.Writer

	cfg *config.Config
}

// ValidFormats formatos de salida admitidos.
var ValidFormats = []string{"text", "json"}

// NewRootCommand comando raíz de la CLI pharmaverif.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{LoadConfig: config.Load, Out: os.Stdout, ErrOut: os.Stderr})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pharmaverif",
		Short: "Verificación de facturas de compra de farmacia",
		Long: `Herramienta de operador de PharmaVerif: siembra datos, verifica facturas contra las
condiciones comerciales de cada proveedor, importa ficheros CSV/XML y genera reclamaciones PDF.

La configuración se lee del entorno (STORE_DRIVER, STORE_SQLITE_PATH, DATABASE_URL, JWT_SECRET...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("formato %q inválido: uno de %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}
	cmd.SetOut(opts.Out)
	cmd.SetErr(opts.ErrOut)

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "logs de depuración en stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "formato de salida (json|text)")

	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewHashPasswordCommand(opts))
	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) printer() *Printer {
	return &Printer{Format: o.Format, Writer: o.Out}
}

// config carga la configuración una sola vez por ejecución.
func (o *RootOptions) config() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	load := o.LoadConfig
	if load == nil {
		load = config.Load
	}
	cfg, err := load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "cargar configuración", err)
	}
	o.cfg = cfg
	return cfg, nil
}

func (o *RootOptions) logger(cfg *config.Config) *logger.Logger {
	level := "warn"
	if o.Verbose {
		level = "debug"
	}
	return logger.New(logger.Config{Env: cfg.App.Env, Level: level, Output: o.ErrOut})
}

// withServices abre el almacén configurado, ejecuta fn y lo cierra.
func (o *RootOptions) withServices(ctx context.Context, fn func(svc *bootstrap.Services) error) error {
	cfg, err := o.config()
	if err != nil {
		return err
	}
	log := o.logger(cfg)
	store, err := bootstrap.OpenStore(ctx, cfg, bootstrap.StoreOptions{Logger: log})
	if err != nil {
		return WrapExitError(ExitCommandError, "abrir almacén", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("cerrar almacén")
		}
	}()
	runErr := fn(bootstrap.NewServices(store, bootstrap.FromConfig(cfg, log, nil)))
	if w := store.LastWarning(); w != nil && runErr == nil {
		return WrapExitError(ExitFailure, "persistencia degradada", w)
	}
	return runErr
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
