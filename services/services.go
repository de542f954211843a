package services

import (
	"github.com/stackmesh/user-service/repositories"
)

// Services holds all service instances
type Services struct {
	Users UserService
}

// NewServices creates and initializes all service instances
func NewServices(repos *repositories.Repositories) *Services {
	return &Services{
		Users: NewUserService(repos.Users, repos.SignIns),
	}
}
