package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"photobatch/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	httpServer *http.Server
	cfg        *config.Config
	log        *zap.Logger
}

// NewRouter wires middlewares and routes
func NewRouter(cfg *config.Config, deps Deps, log *zap.Logger) *gin.Engine {
	switch strings.ToLower(cfg.Server.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(RequestLogger(log))
	r.Use(Recovery(log))

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.Server.AllowedOrigins) == 0 || (len(cfg.Server.AllowedOrigins) == 1 && cfg.Server.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.Server.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// multipart parts above this stay on disk instead of memory
	r.MaxMultipartMemory = 32 << 20

	h := NewHandler(deps, cfg, log)
	limited := RateLimitMiddleware(cfg.Server.RateLimitPerMinute)

	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.POST("/process", limited, h.Process)
		api.POST("/merge", limited, h.Merge)
		api.POST("/capacity", h.Capacity)
		api.GET("/status/:id", h.Status)
		api.GET("/download/:id", h.DownloadArchive)
		api.GET("/download/:id/:file", h.DownloadFile)
		api.GET("/system", h.System)
	}

	return r
}

func New(cfg *config.Config, deps Deps, log *zap.Logger) *Server {
	router := NewRouter(cfg, deps, log)

	server := &Server{
		httpServer: &http.Server{
			Addr:           net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:        router,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
		cfg: cfg,
		log: log,
	}

	log.Info("Server created",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port))

	return server
}

// Run serves until Shutdown is called
func (s *Server) Run() error {
	s.log.Info("Server is running", zap.String("address", s.httpServer.Addr))

	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}
