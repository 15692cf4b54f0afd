package api

import (
	"github.com/ssargent/njord/pkg/codec"
	"github.com/ssargent/njord/pkg/service"
)

// APIResponse represents a standard API response envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Bind   string
	Port   int
	APIKey string
}

// ProductService is the tracking surface the server marshals. It
// matches *service.Tracker; tests may substitute their own.
type ProductService interface {
	Create(payload service.Payload) (*codec.Product, error)
	Get(id uint64) (*codec.Product, error)
	Update(id uint64, payload service.Payload) (*codec.Product, error)
	Delete(id uint64) (*codec.Product, error)
	List() ([]*codec.Product, error)
}
