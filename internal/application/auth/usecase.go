package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/pharmaverif-api/internal/application/dto"
	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// Operator credenciales del operador administrador (hash bcrypt, nunca la contraseña en claro).
type Operator struct {
	User         string
	PasswordHash string
}

// AuthUseCase login del operador y emisión de tokens.
type AuthUseCase struct {
	operator Operator
	jwtCfg   JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(operator Operator, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{operator: operator, jwtCfg: jwtCfg}
}

// Login verifica usuario/password con bcrypt y devuelve un token con rol admin.
// Sin hash configurado ningún login es válido.
func (uc *AuthUseCase) Login(in dto.LoginRequest) (*dto.LoginResponse, error) {
	if uc.operator.PasswordHash == "" || !strings.EqualFold(strings.TrimSpace(in.Username), uc.operator.User) {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(uc.operator.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	return uc.IssueToken(uc.operator.User, jwt.RoleAdmin)
}

// IssueToken emite un token para user/role sin verificar credenciales (CLI de operador).
func (uc *AuthUseCase) IssueToken(user, role string) (*dto.LoginResponse, error) {
	if role != jwt.RoleAdmin && role != jwt.RoleAuditor {
		return nil, domain.Invalid("role", "admin o auditor")
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user, role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:     token,
		User:      user,
		Role:      role,
		ExpiresIn: uc.jwtCfg.ExpMinutes * 60,
	}, nil
}

// HashPassword genera el hash bcrypt a configurar en AUTH_ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", domain.Invalid("password", "mínimo 8 caracteres")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
