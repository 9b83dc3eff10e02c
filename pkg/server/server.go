package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/smarterbotcl/smarterhub/pkg/ratelimit"
	"github.com/smarterbotcl/smarterhub/pkg/storage"
	"github.com/smarterbotcl/smarterhub/pkg/tools"
)

type Server struct {
	mcp.Server
	storage  storage.Storage
	registry *tools.Registry
	limiter  *ratelimit.Limiter
	recorder *tools.Recorder
}

// Tool registers its handlers with the server.
type Tool interface {
	Register(srv *Server) error
}

func NewServer(impl *mcp.Implementation, store storage.Storage, limiter *ratelimit.Limiter, recorder *tools.Recorder) *Server {
	return &Server{
		Server:   *mcp.NewServer(impl, nil),
		storage:  store,
		registry: tools.NewRegistry(),
		limiter:  limiter,
		recorder: recorder,
	}
}

func (s *Server) Storage() storage.Storage {
	return s.storage
}

func (s *Server) Registry() *tools.Registry {
	return s.registry
}

func (s *Server) Limiter() *ratelimit.Limiter {
	return s.limiter
}

func (s *Server) Recorder() *tools.Recorder {
	return s.recorder
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
