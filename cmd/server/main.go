package main

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-petr/ledger-bank/pkg/configpkg"
	"github.com/go-petr/ledger-bank/pkg/dbpkg"
	_ "github.com/lib/pq"

	"github.com/go-petr/ledger-bank/internal/events"
	"github.com/go-petr/ledger-bank/internal/events/kafkaevents"
	"github.com/go-petr/ledger-bank/internal/ledgerdelivery"
	"github.com/go-petr/ledger-bank/internal/ledgerrepo"
	"github.com/go-petr/ledger-bank/internal/ledgerservice"
	"github.com/go-petr/ledger-bank/internal/middleware"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.GetLogger(config)

	conn, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to db")
	}

	server, err := createServer(conn, logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	err = server.Run(config.ServerAddress)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot start server")
	}
}

func createServer(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*gin.Engine, error) {
	ledgerRepo := ledgerrepo.NewRepoPGS(conn)

	var publisher ledgerservice.Publisher = events.NopPublisher{}
	if config.KafkaBrokers != "" {
		publisher = kafkaevents.NewPublisher(config.KafkaBrokers)
	}

	ledgerService := ledgerservice.New(ledgerRepo, publisher)
	ledgerHandler := ledgerdelivery.NewHandler(ledgerService)

	gin.SetMode(gin.ReleaseMode)
	server := gin.New()

	server.Use(middleware.RequestLogger(logger))
	server.Use(gin.Recovery())

	server.POST("/accounts", ledgerHandler.CreateAccount)
	server.GET("/accounts", ledgerHandler.ListAccounts)
	server.GET("/accounts/:id", ledgerHandler.GetBalance)
	server.GET("/accounts/:id/transactions", ledgerHandler.GetTransactionHistory)
	server.POST("/accounts/:id/deposits", ledgerHandler.Deposit)
	server.POST("/accounts/:id/withdrawals", ledgerHandler.Withdraw)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("amount", ledgerdelivery.ValidAmount); err != nil {
			return nil, err
		}
	}

	return server, nil
}
