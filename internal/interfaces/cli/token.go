package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pharmaverif-api/internal/application/auth"
	"github.com/jhoicas/pharmaverif-api/internal/bootstrap"
	"github.com/jhoicas/pharmaverif-api/pkg/jwt"
)

// TokenOptions flags del comando token.
type TokenOptions struct {
	*RootOptions
	User string
	Role string
}

// NewTokenCommand emite un JWT firmado con JWT_SECRET sin pasar por el login.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emitir un token de acceso para un operador",
		Long: `Emite un token JWT firmado con JWT_SECRET. Útil para dar acceso de solo lectura a un auditor.

Ejemplo:
  pharmaverif token --user expert-comptable --role auditor`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return NewExitError(ExitCommandError, "JWT_SECRET vacío: la API no exige token")
			}
			opt := bootstrap.FromConfig(cfg, nil, nil)
			out, err := auth.NewAuthUseCase(opt.Operator, opt.JWT).IssueToken(opts.User, opts.Role)
			if err != nil {
				return WrapExitError(ExitCommandError, "emitir token", err)
			}
			return opts.printer().Print(out, func(w io.Writer) { fmt.Fprintln(w, out.Token) })
		},
	}
	cmd.Flags().StringVar(&opts.User, "user", "admin", "operador")
	cmd.Flags().StringVar(&opts.Role, "role", jwt.RoleAuditor, "rol (admin|auditor)")
	return cmd
}

// NewHashPasswordCommand genera el hash bcrypt para AUTH_ADMIN_PASSWORD_HASH.
func NewHashPasswordCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Generar el hash bcrypt de la contraseña del administrador",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := auth.HashPassword(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "hash", err)
			}
			return rootOpts.printer().Print(map[string]string{"hash": h}, func(w io.Writer) { fmt.Fprintln(w, h) })
		},
	}
}
