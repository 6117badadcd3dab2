package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bizmatch/internal/core/auth"
	"bizmatch/internal/core/cache"
	"bizmatch/internal/core/config"
	"bizmatch/internal/core/database"
	"bizmatch/internal/core/logger"
	"bizmatch/internal/core/server"
	"bizmatch/internal/domain"
	"bizmatch/internal/repo"
	"bizmatch/internal/service"
	"bizmatch/internal/suggest"
	"bizmatch/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := newLogger(cfg)
	defer cleanup()

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(
			&domain.User{},
			&domain.ConnectionRequest{},
			&domain.UserConnection{},
			&domain.ViewLog{},
			&domain.Notification{},
		); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	jwter := &auth.JWTer{
		Secret:        []byte(cfg.JWT.Secret),
		RefreshSecret: []byte(cfg.JWT.RefreshSecret),
		Issuer:        cfg.JWT.Issuer,
		TTL:           time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		RefreshTTL:    time.Duration(cfg.JWT.RefreshTokenTTLDay) * 24 * time.Hour,
		ResetTTL:      time.Duration(cfg.JWT.ResetTokenTTLMin) * time.Minute,
	}

	// 仓库 + 服务
	userRepo := repo.NewUserRepo(db)
	connRepo := repo.NewConnectionRepo(db)
	viewRepo := repo.NewViewLogRepo(db)
	notifRepo := repo.NewNotificationRepo(db)

	var rc *cache.Cache
	if cfg.Redis.Addr != "" {
		rc = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		log.Info("redis cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	engine := suggest.NewEngine(userRepo, connRepo, rc, log, suggest.Options{
		DefaultLimit:    cfg.Suggest.DefaultLimit,
		OverfetchFactor: cfg.Suggest.OverfetchFactor,
		CacheTTL:        time.Duration(cfg.Suggest.CacheTTLSec) * time.Second,
	})

	deps := router.Deps{
		Log:      log,
		JWT:      jwter,
		Users:    service.NewUserService(userRepo, jwter, log),
		Conns:    service.NewConnectionService(connRepo, userRepo, notifRepo, log),
		Notifs:   service.NewNotificationService(notifRepo, log),
		Views:    service.NewViewService(viewRepo, userRepo, connRepo, log),
		Suggest:  engine,
		UserRepo: userRepo,
	}

	r := router.NewAPIEngine(deps)

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api start FAILED", zap.Error(err))
		}
	}()
	log.Info("api started SUCCESS")

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("api stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, func()) {
	if cfg.Log.Filename != "" {
		return logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON,
			cfg.Log.Filename, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays, cfg.Log.Compress)
	}
	return logger.New(cfg.Log.Level, cfg.Log.JSON)
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
