package main

import (
	"github.com/blues/cts/internal/config"
	"github.com/blues/cts/internal/logger"
	"github.com/blues/cts/internal/logic"
	"github.com/blues/cts/internal/repository"
	"github.com/blues/cts/internal/router"
	"github.com/blues/cts/internal/scheduler"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	logger.Init(cfg.Log)
	defer logger.Sync()

	// 初始化数据库
	db, err := repository.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化众筹引擎并从数据库恢复状态
	crowdsaleLogic, err := logic.NewCrowdsaleLogic(db, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize crowdsale engine: %v", err)
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, crowdsaleLogic, cfg)

	// 启动定时任务
	manager := scheduler.Start(crowdsaleLogic, cfg)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
