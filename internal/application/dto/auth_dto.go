package dto

// LoginRequest credenciales del operador.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse token JWT emitido.
type LoginResponse struct {
	Token     string `json:"token"`
	User      string `json:"user"`
	Role      string `json:"role"`
	ExpiresIn int    `json:"expires_in"` // segundos
}
