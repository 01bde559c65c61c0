package main

import (
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/nimasrn/messaging-api/internal/config"
	gateway "github.com/nimasrn/messaging-api/internal/gateways"
	"github.com/nimasrn/messaging-api/internal/handlers"
	"github.com/nimasrn/messaging-api/internal/repository"
	"github.com/nimasrn/messaging-api/internal/services"
	xhttp "github.com/nimasrn/messaging-api/pkg/http"
	"github.com/nimasrn/messaging-api/pkg/logger"
	"github.com/nimasrn/messaging-api/pkg/pg"
	"github.com/nimasrn/messaging-api/pkg/prom"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	stakeholderClient, err := gateway.NewStakeholderClient(&gateway.Config{
		BaseURL:    config.Get().StakeholderApiUrl,
		Timeout:    config.Get().StakeholderTimeout,
		MaxRetries: config.Get().StakeholderMaxRetries,
		RetryDelay: config.Get().StakeholderRetryDelay,
	})
	if err != nil {
		logger.Error("failed creating stakeholder client", "error", err)
		return
	}

	if config.Get().PromNamespace != "" {
		host, _ := os.Hostname()
		if err := prom.Create(host, config.Get().AppEnv, config.Get().PromNamespace); err != nil {
			logger.Error("failed creating metrics", "error", err)
		}
		if config.Get().AppDebugMetricsAddr != "" {
			go prom.ListenAndServer(config.Get().AppDebugMetricsAddr, config.Get().AppDebugMetricsURI)
		}
	}

	messageRepo := repository.NewMessageRepository(db)
	requestRepo := repository.NewMessageRequestRepository(db)
	deliveryRepo := repository.NewMessageDeliveryRepository(db)
	surveyRepo := repository.NewSurveyRepository(db)

	// services
	messageService := services.NewMessageService(messageRepo, requestRepo, deliveryRepo, surveyRepo, stakeholderClient, db)
	healthService := services.NewHealthService()

	// v1 handlers
	messageHandler := handlers.NewMessageHandler(messageService)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterMessageRoutes(g, messageHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-c
	s.Shutdown()
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
