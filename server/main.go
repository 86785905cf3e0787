package main

import (
	"github.com/CkBcDD/NexBack/internal/config"
	"github.com/CkBcDD/NexBack/internal/database"
	"github.com/CkBcDD/NexBack/internal/engine"
	logger "github.com/CkBcDD/NexBack/internal/logging"
	"github.com/CkBcDD/NexBack/internal/models"
	"github.com/CkBcDD/NexBack/internal/repository"
	"github.com/CkBcDD/NexBack/internal/router"
	"github.com/CkBcDD/NexBack/internal/session"

	"go.uber.org/zap"
)

func main() {
	// A console-only logger covers startup until the config is loaded.
	bootLog, err := zap.NewDevelopment()
	if err != nil {
		panic("failed to initialize bootstrap logger: " + err.Error())
	}

	if err := config.Init("config", bootLog); err != nil {
		bootLog.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize the real logger from the loaded configuration.
	logConf := config.Conf.Logging
	log, err := logger.Init(logConf.Directory, logger.Rotation{
		MaxSize:    logConf.MaxSize,
		MaxBackups: logConf.MaxBackups,
		MaxAge:     logConf.MaxAge,
		Compress:   logConf.Compress,
	})
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer log.Sync()

	// Initialize Database
	database.Init(log)

	// The letter manifest must cover the configured alphabet, or the
	// audio collaborator would be handed letters it cannot play.
	manifest, err := models.LoadLetterManifest(config.Conf.Game.LettersManifest)
	if err != nil {
		log.Fatal("Failed to load letter manifest", zap.Error(err))
	}
	if err := manifest.Covers(config.Conf.Game.Alphabet); err != nil {
		log.Fatal("Letter manifest incomplete", zap.Error(err))
	}

	// Finished sessions flow straight into the database.
	mgr := session.NewManager(log, func(sessionID string, cfg engine.SessionConfig, result engine.SessionResult, trials []engine.Trial, outcomes []engine.TrialOutcome) error {
		record, rows, err := models.NewSessionRecord(sessionID, cfg, result, trials, outcomes)
		if err != nil {
			return err
		}
		return repository.SaveSessionTx(record, rows)
	})

	// Setup router, passing the logger to it
	r := router.Setup(log, mgr)

	// Start the Gin server
	port := ":" + config.Conf.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
}
