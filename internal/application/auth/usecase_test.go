package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/pharmaverif-api/internal/application/dto"
	"github.com/jhoicas/pharmaverif-api/internal/domain"
	"github.com/jhoicas/pharmaverif-api/pkg/jwt"
)

func newUseCase(t *testing.T) *AuthUseCase {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pharmacie2024"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthUseCase(
		Operator{User: "admin", PasswordHash: string(hash)},
		JWTConfig{Secret: "test-secret", ExpMinutes: 60, Issuer: "pharmaverif"},
	)
}

func TestLogin(t *testing.T) {
	uc := newUseCase(t)

	out, err := uc.Login(dto.LoginRequest{Username: "Admin", Password: "pharmacie2024"})
	require.NoError(t, err)
	assert.Equal(t, jwt.RoleAdmin, out.Role)
	assert.Equal(t, 3600, out.ExpiresIn)

	user, role, err := jwt.Parse("test-secret", out.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", user)
	assert.Equal(t, jwt.RoleAdmin, role)

	_, err = uc.Login(dto.LoginRequest{Username: "admin", Password: "mauvais"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(dto.LoginRequest{Username: "root", Password: "pharmacie2024"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_NoHashConfigured(t *testing.T) {
	uc := NewAuthUseCase(Operator{User: "admin"}, JWTConfig{Secret: "s"})
	_, err := uc.Login(dto.LoginRequest{Username: "admin", Password: ""})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestIssueToken(t *testing.T) {
	uc := newUseCase(t)

	out, err := uc.IssueToken("ana", jwt.RoleAuditor)
	require.NoError(t, err)
	_, role, err := jwt.Parse("test-secret", out.Token)
	require.NoError(t, err)
	assert.Equal(t, jwt.RoleAuditor, role)

	_, err = uc.IssueToken("ana", "bodeguero")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestHashPassword(t *testing.T) {
	_, err := HashPassword("corto")
	assert.ErrorIs(t, err, domain.ErrValidation)

	h, err := HashPassword("pharmacie2024")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("pharmacie2024")))
}
