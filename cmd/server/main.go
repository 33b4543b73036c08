package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/grimoire/internal/api"
	"github.com/wfunc/grimoire/internal/config"
	"github.com/wfunc/grimoire/internal/database"
	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/game"
	"github.com/wfunc/grimoire/internal/game/role"
	"github.com/wfunc/grimoire/internal/logger"
	"github.com/wfunc/grimoire/internal/service"
	ws "github.com/wfunc/grimoire/internal/websocket"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	services *service.Services
	games    *game.GameService
	hub      *ws.Hub
	http     *http.Server

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	// 命令行参数
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Get()

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	printStartInfo(cfg)

	server := NewServer(cfg)

	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	// 等待退出信号
	server.WaitForShutdown()

	// 优雅关闭
	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:    cfg,
		logger: logger.GetLogger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动魔典服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	if err := s.initComponents(); err != nil {
		return errors.Wrap(err, errors.ErrUnknown, "初始化组件失败")
	}

	if err := s.startServices(); err != nil {
		return errors.Wrap(err, errors.ErrUnknown, "启动服务失败")
	}

	// 监听配置变化
	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...")
		s.reloadConfig(newCfg)
	})

	s.logger.Info("服务器启动成功",
		zap.String("http", s.http.Addr),
		zap.String("websocket", s.cfg.WebSocket.Path),
	)

	return nil
}

// initComponents 初始化组件
func (s *Server) initComponents() error {
	if err := s.initDatabase(); err != nil {
		return err
	}

	catalog, err := role.Default()
	if err != nil {
		return errors.Wrap(err, errors.ErrMissingRole, "加载角色目录失败")
	}

	// 认证服务与默认说书人
	s.services = service.NewServices(database.GetDB(), service.ConfigFromSecurity(&s.cfg.Security), logger.GetModuleLogger("auth"))
	if st := s.cfg.Security.Storyteller; st.Name != "" {
		if _, err := s.services.Auth.EnsureStoryteller(s.ctx, st.Name, st.PIN); err != nil {
			return errors.Wrap(err, errors.ErrUnknown, "创建默认说书人失败")
		}
	}

	// 游戏服务
	gameCfg := s.cfg.Game
	s.games = game.NewGameService(&game.GameServiceConfig{
		DB:     database.GetDB(),
		Logger: logger.GetModuleLogger("game"),
		Engine: game.Options{
			SeatCount:    gameCfg.SeatCount,
			Seed:         gameCfg.Seed,
			HistoryLimit: gameCfg.HistoryLimit,
			Catalog:      catalog,
		},
		SessionTimeout:  gameCfg.SessionTimeout,
		MaxSessions:     gameCfg.MaxSessions,
		CleanupInterval: gameCfg.CleanupInterval,
		CacheTTL:        gameCfg.CacheTTL,
	})

	// WebSocket推送
	s.hub = ws.NewHub(logger.GetModuleLogger("websocket"), ws.OptionsFromConfig(&s.cfg.WebSocket))
	s.games.Sessions().Subscribe(func(sessionID string, view game.View) {
		s.hub.PushState(sessionID, view)
	})

	if s.cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(&api.RouterConfig{
		Config:   s.cfg,
		DB:       database.GetDB(),
		Services: s.services,
		Games:    s.games,
		Hub:      s.hub,
		Catalog:  catalog,
		Logger:   logger.GetModuleLogger("http"),
	})

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.logger.Info("所有组件初始化完成")
	return nil
}

// initDatabase 初始化数据库
func (s *Server) initDatabase() error {
	if err := database.Init(&s.cfg.Database); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseConnect, "初始化数据库连接失败")
	}

	if s.cfg.Database.AutoMigrate {
		if s.cfg.Database.Driver == "sqlite" {
			database.CleanupStaleLocks(filepath.Dir(s.cfg.Database.DSN))
		}
		s.logger.Info("执行数据库自动迁移...")
		if err := database.AutoMigrate(); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}

	if !database.IsConnected() {
		return errors.New(errors.ErrDatabaseConnect, "数据库连接检查失败")
	}
	return nil
}

// startServices 启动服务
func (s *Server) startServices() error {
	s.games.Start(s.ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run(s.ctx)
		s.logger.Info("WebSocket Hub已停止")
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.http.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP服务异常退出", zap.Error(err))
		}
	}()

	s.logger.Info("所有服务启动完成")
	return nil
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)

	signal.Notify(sigCh,
		syscall.SIGINT,  // Ctrl+C
		syscall.SIGTERM, // kill命令
		syscall.SIGQUIT, // Ctrl+\
	)

	sig := <-sigCh
	s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 停止接收新请求
	s.logger.Info("停止接收新请求...")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP服务关闭失败", zap.Error(err))
	}

	// 保存进行中的对局
	s.games.Stop(shutdownCtx)

	// 取消主上下文，触发所有goroutine退出
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("所有服务已正常关闭")
	case <-shutdownCtx.Done():
		s.logger.Warn("关闭超时，强制退出")
		return errors.New(errors.ErrTimeout, "关闭超时")
	}

	if err := s.closeComponents(); err != nil {
		s.logger.Error("关闭组件失败", zap.Error(err))
		return err
	}

	if err := logger.Sync(); err != nil {
		fmt.Printf("同步日志失败: %v\n", err)
	}

	return nil
}

// closeComponents 关闭组件
func (s *Server) closeComponents() error {
	s.logger.Info("关闭组件...")

	if err := database.Close(); err != nil {
		s.logger.Error("关闭数据库失败", zap.Error(err))
	}

	s.logger.Info("所有组件已关闭")
	return nil
}

// reloadConfig 重新加载配置，目前只有日志级别可以热更新
func (s *Server) reloadConfig(newCfg *config.Config) {
	logger.SetLevel(newCfg.Log.Level)
	s.logger.Info("配置重新加载完成", zap.String("log_level", newCfg.Log.Level))
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("魔典说书人服务器\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("魔典说书人服务器")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  grimoire-server [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  GRIMOIRE_SERVER_PORT        HTTP端口")
	fmt.Println("  GRIMOIRE_DATABASE_DSN       数据库连接串")
	fmt.Println("  GRIMOIRE_SECURITY_JWT_SECRET JWT密钥")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  grimoire-server -config=/path/to/config.yaml")
	fmt.Println("  grimoire-server -version")
}

// printStartInfo 打印启动信息
func printStartInfo(cfg *config.Config) {
	banner := `
╔═══════════════════════════════════════════════════════════════╗
║                                                               ║
║                  GRIMOIRE · 血染钟楼说书人魔典                 ║
║                                                               ║
╚═══════════════════════════════════════════════════════════════╝
`
	fmt.Println(banner)
	fmt.Printf("版本: %s | 模式: %s | PID: %d\n", Version, cfg.Server.Mode, os.Getpid())
	fmt.Printf("数据库: %s | 座位数: %d\n", cfg.Database.Driver, cfg.Game.SeatCount)
	fmt.Println("═══════════════════════════════════════════════════════════════")
}
