package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mast/internal/common"
	"mast/internal/engine"
	"mast/internal/engine/dockerenv"
	"mast/internal/engine/localenv"
	"mast/internal/server/dao"
	"mast/internal/server/handler"
	"mast/internal/server/middleware"
	"mast/internal/server/report"
	"mast/internal/server/schedule"
)

func newProvisioner(logger *zap.Logger) engine.Provisioner {
	prov, err := dockerenv.NewProvisioner(nil)
	if err != nil {
		logger.Warn("docker unavailable, running jobs on the host", zap.Error(err))
		return &localenv.Provisioner{}
	}
	return prov
}

func main() {
	common.InitConf()
	common.InitLog()
	cfg := common.GetConfig()
	logger := common.GetLogger()
	defer logger.Sync()

	if err := dao.Init(cfg); err != nil {
		logger.Fatal("database init", zap.Error(err))
	}

	eng := engine.New(newProvisioner(logger), engine.Config{
		Reporter: engine.MultiReporter{
			engine.LogReporter{Logger: logger},
			report.NewDAOReporter(dao.NewRunDao(), logger),
		},
		MaxConcurrency: cfg.MaxConcurrency,
		StepTimeout:    cfg.StepTimeout,
	})

	worker := schedule.NewWorker(cfg, eng)
	if err := worker.Start(); err != nil {
		logger.Fatal("queue worker start", zap.Error(err))
	}
	defer worker.Shutdown()

	cron := schedule.NewCronScheduler(cfg)
	if err := cron.LoadAll(context.Background()); err != nil {
		logger.Fatal("load pipeline schedules", zap.Error(err))
	}
	if err := cron.Start(); err != nil {
		logger.Fatal("cron scheduler start", zap.Error(err))
	}
	defer cron.Shutdown()

	handler.Init(schedule.NewEnqueuer(cfg), cron)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/login", handler.UserLogin)
	r.POST("/webhook", handler.Webhook)

	auth := r.Group("/", middleware.JWTAuthMiddleware())
	auth.POST("/create", handler.CreatePipeline)
	auth.POST("/update/:name", handler.UpdatePipeline)
	auth.POST("/trigger", handler.TriggerPipeline)
	auth.GET("/pipeline", handler.ListPipelines)
	auth.GET("/pipeline/:id", handler.GetPipeline)
	auth.GET("/runs", handler.ListRuns)
	auth.GET("/runs/:id", handler.GetRunDetail)

	logger.Info("server listening", zap.String("addr", ":8080"))
	var err error
	if cfg.CertPath != "" && cfg.KeyPath != "" {
		err = r.RunTLS(":8080", cfg.CertPath, cfg.KeyPath)
	} else {
		err = r.Run(":8080")
	}
	if err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
