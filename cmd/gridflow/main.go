package main

import (
	"flag"
	"log"

	"gridflow/conf"
	"gridflow/internal/model"
	"gridflow/internal/strategy"
	"gridflow/internal/strategy/traprepeat"
	"gridflow/pkg/db"
	"gridflow/pkg/logger"
)

var configPath = flag.String("c", "config.yaml", "配置文件路径")

func main() {
	flag.Parse()

	// 加载配置文件
	if err := conf.LoadConfig(*configPath); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := &conf.AppConfig

	logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		FileName:   cfg.Log.FileName,
		TimeFormat: cfg.Log.TimeFormat,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
		LocalTime:  cfg.Log.LocalTime,
		Console:    cfg.Log.Console,
	})

	gdb := db.Init(db.NewConfig(cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.DbName))
	if err := gdb.AutoMigrate(
		&model.AgentSourceRecord{},
		&model.AgentInstanceRecord{},
		&model.OrderJournalRecord{},
	); err != nil {
		log.Fatalf("auto migrate failed: %v", err)
	}

	// 注册内置策略类
	strategy.Register(traprepeat.ClassName, traprepeat.NewAgent)

	apiRouter := InitRouter(gdb)

	srv := NewServer(cfg)
	srv.Run(apiRouter)
}
