package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"finreport/internal/artifact"
	"finreport/internal/config"
	"finreport/internal/logging"
	"finreport/internal/server/handlers"
	"finreport/internal/service/ai"
	"finreport/internal/service/generate"
	"finreport/internal/service/ingest"
	"finreport/internal/service/mapping"
	"finreport/internal/store"
)

// sessionCookie 浏览器会话标识，用于隔离各会话的预览缓存
const sessionCookie = "finreport_session"

// Server HTTP服务器
type Server struct {
	router   *gin.Engine
	store    *store.Store
	handlers *handlers.Handlers
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	log := logging.GetLogger()

	artifacts, err := artifact.New(config.ResolveDataDir(cfg))
	if err != nil {
		return nil, fmt.Errorf("初始化数据目录失败: %w", err)
	}

	sqliteStore, err := store.New(artifacts.DBPath())
	if err != nil {
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}

	ingestSvc := ingest.NewService(sqliteStore, artifacts, log)
	mappingSvc := mapping.NewService(sqliteStore, artifacts, log)
	generator := generate.NewService(sqliteStore, artifacts, log)

	apiKey := ai.ResolveAPIKey(cfg.AI.KeyFile)
	engine := ai.NewEngine(apiKey, cfg.AI.BaseURL, cfg.AI.Model, log)

	h := handlers.NewHandlers(cfg, sqliteStore, artifacts,
		ingestSvc, mappingSvc, generator, engine, log)

	s := &Server{
		router:   gin.Default(),
		store:    sqliteStore,
		handlers: h,
	}

	s.setupRoutes()

	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// 会话 cookie：没有就发一个
	s.router.Use(func(c *gin.Context) {
		id, err := c.Cookie(sessionCookie)
		if err != nil || id == "" {
			id = uuid.New().String()
			c.SetCookie(sessionCookie, id, 0, "/", "", false, true)
		}
		c.Set(handlers.SessionKey, id)
		c.Next()
	})

	api := s.router.Group("/api")
	{
		s.handlers.RegisterRoutes(api)
	}

	s.router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close 关闭底层数据库连接
func (s *Server) Close() error {
	return s.store.Close()
}

// Router 获取路由（用于测试）
func (s *Server) Router() *gin.Engine {
	return s.router
}
