package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"catalog_studio_v1_202610/internal/config"
	"catalog_studio_v1_202610/internal/controller"
	"catalog_studio_v1_202610/internal/metrics"
	"catalog_studio_v1_202610/internal/middleware"
	"catalog_studio_v1_202610/internal/model"
	"catalog_studio_v1_202610/internal/repository"
	"catalog_studio_v1_202610/internal/router"
	"catalog_studio_v1_202610/internal/service"
	"catalog_studio_v1_202610/internal/task"
	"catalog_studio_v1_202610/pkg/database"
	"catalog_studio_v1_202610/pkg/net"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "启动 HTTP 服务",
		Action: func(c *cli.Context) error {
			cfg, log, err := bootstrap(c)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if err := config.Validate(cfg); err != nil {
				return err
			}
			gin.SetMode(cfg.Server.Mode)

			// 1. 初始化数据库
			db, err := initDatabase(cfg, log)
			if err != nil {
				return err
			}

			// 2. 初始化依赖
			deps, err := initDependencies(cfg, db, log)
			if err != nil {
				return err
			}

			// 3. 启动定时任务
			if err := deps.Tasks.Start(); err != nil {
				return err
			}
			defer deps.Tasks.Stop()

			// 4. 初始化路由
			r := router.NewEngine(log)
			router.InitRoutes(r, deps.Registry, deps.SubmitLimiter, deps.Controllers.Form, deps.Controllers.Catalog)

			// 5. 启动服务
			return startServer(c.Context, cfg, r, log)
		},
	}
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB            *gorm.DB
	Repos         *Repositories
	Services      *Services
	Controllers   *Controllers
	Tasks         *task.TaskManager
	Registry      *prometheus.Registry
	SubmitLimiter *middleware.SubmitLimiter
}

// Repositories 仓库集合
type Repositories struct {
	Brand    repository.BrandRepository
	Category repository.CategoryRepository
}

// Services 服务集合
type Services struct {
	Catalog *service.CatalogService
	Storage *service.StorageService
	Form    *service.FormService
}

// Controllers 控制器集合
type Controllers struct {
	Form    *controller.FormController
	Catalog *controller.CatalogController
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := database.InitDB(database.Options{
		DSN:          cfg.Database.DSN,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		LogSQL:       cfg.Database.LogSQL,
	}, log, &model.Brand{}, &model.Category{})
	if err != nil {
		return nil, err
	}
	if err := middleware.RegisterAuditCallbacks(db); err != nil {
		return nil, err
	}
	return db, nil
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *gorm.DB, log *zap.Logger) (*Dependencies, error) {
	// -------- 指标 --------
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	// -------- Repo 层 --------
	repos := &Repositories{
		Brand:    repository.NewBrandRepository(db),
		Category: repository.NewCategoryRepository(db),
	}

	// -------- 基础服务 --------
	dispatcher := net.NewDispatcher(net.DispatcherConfig{
		Timeout:    cfg.Submit.Timeout,
		MaxRetries: cfg.Submit.MaxRetries,
		RetryWait:  cfg.Submit.RetryWait,
	})
	submitter := service.NewHTTPSubmitter(dispatcher, cfg.Submit.URL, cfg.Submit.Token)

	services := &Services{
		Catalog: service.NewCatalogService(repos.Brand, repos.Category, cfg.Form.CatalogCacheTTL),
		Storage: initStorageService(cfg, log),
	}

	// storage 未启用时传 nil 接口，发布图片返回 ErrStorageDisabled
	var store service.AssetStore
	if services.Storage != nil {
		store = services.Storage
	}
	services.Form = service.NewFormService(services.Catalog, submitter, store, log)

	limiter := middleware.NewSubmitLimiter(cfg.Submit.MinInterval, 1)
	services.Form.OnTeardown(limiter.Reset)

	// -------- Controller 层 --------
	controllers := &Controllers{
		Form:    controller.NewFormController(services.Form, log),
		Catalog: controller.NewCatalogController(services.Catalog),
	}

	// -------- 后台任务 --------
	tasks := task.NewTaskManager(&task.TaskManagerDeps{
		Forms:  services.Form,
		Logger: log,
	}, &task.TaskManagerConfig{
		FormSweepEnabled: true,
		FormSweepSpec:    cfg.Form.SweepSpec,
		FormIdleTTL:      cfg.Form.IdleTTL,
	})

	return &Dependencies{
		DB:            db,
		Repos:         repos,
		Services:      services,
		Controllers:   controllers,
		Tasks:         tasks,
		Registry:      registry,
		SubmitLimiter: limiter,
	}, nil
}

// initStorageService 初始化存储服务，失败时降级为不启用
func initStorageService(cfg *config.Config, log *zap.Logger) *service.StorageService {
	if cfg.Storage.Provider == "" {
		log.Info("未配置远程存储，图片发布已禁用")
		return nil
	}
	storageSvc, err := service.NewStorageService(&service.StorageConfig{
		Provider:  cfg.Storage.Provider,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
		CDNDomain: cfg.Storage.CDNDomain,
		BasePath:  cfg.Storage.BasePath,
	})
	if err != nil {
		log.Warn("存储服务初始化失败", zap.Error(err))
		return nil
	}
	return storageSvc
}

// ==================== 服务启动 ====================

// startServer 启动服务并等待退出信号
func startServer(parent context.Context, cfg *config.Config, r *gin.Engine, log *zap.Logger) error {
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("服务已退出")
	return nil
}
