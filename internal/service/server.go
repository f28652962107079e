package service

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server rondas-validator HTTP 服务
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	s := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return &Server{httpServer: s, logger: logger}
}

// Start 阻塞直到服务关闭；正常 Shutdown 时返回 nil
func (s *Server) Start() error {
	s.logger.Info("Starting rondas-validator HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping rondas-validator HTTP server")
	return s.httpServer.Shutdown(ctx)
}
