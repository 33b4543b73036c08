package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/grimoire/internal/config"
	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/game"
	"github.com/wfunc/grimoire/internal/game/role"
	"github.com/wfunc/grimoire/internal/middleware"
	"github.com/wfunc/grimoire/internal/service"
	ws "github.com/wfunc/grimoire/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RouterConfig 路由依赖
type RouterConfig struct {
	Config   *config.Config
	DB       *gorm.DB
	Services *service.Services
	Games    *game.GameService
	Hub      *ws.Hub
	Catalog  *role.Catalog
	Logger   *zap.Logger
}

// Router API路由器
type Router struct {
	engine         *gin.Engine
	db             *gorm.DB
	cfg            *config.Config
	authHandler    *AuthHandler
	sessionHandler *SessionHandler
	recordHandler  *RecordHandler
	catalogHandler *CatalogHandler
	wsHandler      *WebSocketHandler
	authMiddleware *middleware.AuthMiddleware
	log            *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(rc *RouterConfig) *Router {
	log := rc.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()

	// 全局中间件
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestLogger())
	engine.Use(middleware.CORS(rc.Config.Server.AllowOrigins))

	sessions := rc.Games.Sessions()
	router := &Router{
		engine:         engine,
		db:             rc.DB,
		cfg:            rc.Config,
		authHandler:    NewAuthHandler(rc.Services.Auth),
		sessionHandler: NewSessionHandler(sessions, rc.Config.Game.DefaultScript, log),
		recordHandler:  NewRecordHandler(rc.Games),
		catalogHandler: NewCatalogHandler(rc.Catalog),
		wsHandler:      NewWebSocketHandler(rc.Hub, sessions, &rc.Config.WebSocket, log),
		authMiddleware: middleware.NewAuthMiddleware(rc.Services.Auth),
		log:            log,
	}

	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	v1 := r.engine.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/refresh", r.authHandler.RefreshToken)
			auth.GET("/profile", r.authMiddleware.RequireAuth(), r.authHandler.Profile)
		}

		// 角色目录
		v1.GET("/roles", r.catalogHandler.Roles)
		v1.GET("/scripts", r.catalogHandler.Scripts)

		authed := v1.Group("")
		authed.Use(r.authMiddleware.RequireAuth())

		sessions := authed.Group("/sessions")
		{
			h := r.sessionHandler
			sessions.POST("", h.Create)
			sessions.GET("", h.List)
			sessions.GET("/:id", h.Get)
			sessions.GET("/:id/stats", h.Stats)
			sessions.DELETE("/:id", h.Delete)

			// 配置阶段
			sessions.POST("/:id/script", h.SelectScript)
			sessions.POST("/:id/reset", h.Reset)
			sessions.POST("/:id/seats/:seat/role", h.AssignRole)
			sessions.DELETE("/:id/seats/:seat/role", h.ClearSeat)
			sessions.PUT("/:id/seats/:seat/name", h.SetSeatName)
			sessions.POST("/:id/check", h.BeginCheck)
			sessions.DELETE("/:id/check", h.CancelCheck)

			// 夜晚
			sessions.POST("/:id/night", h.StartNight)
			sessions.POST("/:id/select", h.SelectTarget)
			sessions.POST("/:id/confirm", h.Confirm)
			sessions.POST("/:id/back", h.StepBack)
			sessions.POST("/:id/interaction", h.ResolveInteraction)

			// 白天
			sessions.POST("/:id/day", h.AdvanceToDay)
			sessions.POST("/:id/day-ability", h.UseDayAbility)
			sessions.POST("/:id/dusk", h.OpenDusk)
			sessions.POST("/:id/nominate", h.Nominate)
			sessions.POST("/:id/vote", h.Vote)
			sessions.POST("/:id/execute", h.Execute)

			sessions.POST("/:id/seats/:seat/toggle", h.Toggle)
		}

		records := authed.Group("/records")
		{
			records.GET("", r.recordHandler.List)
			records.GET("/:id", r.recordHandler.Get)
		}
		authed.GET("/stats", r.recordHandler.Stats)
		authed.GET("/ws/stats", r.wsHandler.Stats)
	}

	// WebSocket路由，浏览器通过 ?token= 传递令牌
	path := r.cfg.WebSocket.Path
	if path == "" {
		path = "/ws"
	}
	r.engine.GET(path, r.authMiddleware.RequireAuth(), r.wsHandler.Connect)

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		respondError(c, errors.New(errors.ErrNotFound, "接口不存在"))
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	if r.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "disabled"})
		return
	}

	sqlDB, err := r.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"message": "数据库连接失败",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"message": "数据库ping失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
	})
}

// Handler HTTP处理器
func (r *Router) Handler() http.Handler {
	return r.engine
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
