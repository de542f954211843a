package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/stackmesh/user-service/services"
	"github.com/stackmesh/user-service/token"
)

// writeJSON renders v as a JSON response with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders the error body shared by all failure responses
func writeError(w http.ResponseWriter, statusCode int, detail string) {
	writeJSON(w, statusCode, map[string]string{"detail": detail})
}

// Controllers holds all controller instances
type Controllers struct {
	Auth  *AuthController
	Users *UserController
}

// NewControllers creates and initializes all controller instances
func NewControllers(services *services.Services, codec *token.Codec) *Controllers {
	return &Controllers{
		Auth:  NewAuthController(services.Users, codec),
		Users: NewUserController(services.Users),
	}
}
