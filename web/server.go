package web

import (
	"context"
	"net/http"

	"concierge/config"
	"concierge/web/handlers"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	router *gin.Engine
	logger *zap.Logger
	config *config.Config
}

func NewServer(cfg *config.Config, chat *handlers.ChatHandler, ingest *handlers.IngestHandler, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/chat", chat.SendMessage)
	router.DELETE("/sessions/:id", chat.ClearSession)
	router.POST("/ingest", ingest.Ingest)

	return &Server{
		router: router,
		logger: logger,
		config: cfg,
	}
}

func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))

	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Web server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()

	s.logger.Info("Shutting down web server")
	return srv.Shutdown(context.Background())
}
