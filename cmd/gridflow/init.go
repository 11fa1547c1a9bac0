package main

import (
	"log"

	"gorm.io/gorm"

	"gridflow/conf"
	"gridflow/internal/agent"
	"gridflow/internal/broker"
	"gridflow/internal/dao"
	agenthandler "gridflow/internal/handler/agent"
	"gridflow/internal/handler/ticker"
	"gridflow/internal/model"
	"gridflow/internal/router"
	"gridflow/pkg/kafka"
	"gridflow/pkg/recorder"

	"gridflow/internal/exchange"
	"gridflow/internal/exchange/oanda"
)

func InitRouter(db *gorm.DB) Router {
	appCfg := conf.AppConfig

	pairs := make([]model.Pair, 0, len(appCfg.Pairs))
	for _, pc := range appCfg.Pairs {
		p, err := model.NewPair(pc.Name, pc.Pip)
		if err != nil {
			log.Fatalf("invalid pair config %s: %v", pc.Name, err)
		}
		pairs = append(pairs, p)
	}

	agentDao := dao.NewAgentDao(db)
	journalDao := dao.NewJournalDao(db)

	// 订单流水记录器：JSON文件 + 可选kafka
	var recs recorder.Multi
	if appCfg.Journal.Path != "" {
		recs = append(recs, recorder.NewJSONFileRecorder(appCfg.Journal.Path))
	}
	if appCfg.Kafka.Broker != "" {
		producer := kafka.NewKafkaProducer(appCfg.Kafka.Broker, appCfg.Kafka.Topic)
		recs = append(recs, recorder.NewKafkaRecorder(producer, appCfg.AppName))
	}
	var rec recorder.Recorder
	if len(recs) > 0 {
		rec = recs
	}

	// 会话工厂：每个策略实例一个独立会话
	newSession := func() broker.Session {
		if appCfg.Broker.Simulated {
			return exchange.NewSimulatedBroker()
		}
		client := oanda.NewRestClient(appCfg.Broker.Endpoint, appCfg.Broker.ApiToken, appCfg.Broker.AccountID)
		return exchange.NewAccount(client, pairs)
	}

	rt := agent.NewRuntime(agentDao, journalDao, rec, pairs, newSession)

	tickerHandler := ticker.NewHandler()
	// tick旁路广播给websocket订阅方
	rt.SetTickListener(tickerHandler.Broadcast)

	agentHandler := agenthandler.NewHandler(rt)

	return router.NewApiRouter(agentHandler, tickerHandler)
}
