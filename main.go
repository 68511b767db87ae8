package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-server/api"
	"github.com/carson-networks/finance-server/internal/config"
	"github.com/carson-networks/finance-server/internal/jobs/inmemory"
	"github.com/carson-networks/finance-server/internal/logging"
	"github.com/carson-networks/finance-server/internal/operator"
	"github.com/carson-networks/finance-server/internal/scheduler"
	"github.com/carson-networks/finance-server/internal/service"
	"github.com/carson-networks/finance-server/internal/storage"
)

const stopTimeout = 30 * time.Second

func main() {
	logger := logging.SetupLogging()
	logrus.Info("finance-server starting")

	envConfig, err := config.ProcessEnvironmentVariables()
	if err != nil {
		logrus.WithError(err).Fatal("config.ProcessEnvironmentVariables")
		return
	}
	if err := logging.SetLevel(logger, envConfig.LogLevel); err != nil {
		logrus.WithError(err).Fatal("logging.SetLevel")
		return
	}

	dbStorage, err := storage.NewStorage(envConfig)
	if err != nil {
		logrus.WithError(err).Fatal("storage.NewStorage")
		return
	}
	defer dbStorage.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	delegator := operator.NewOperatorDelegator(dbStorage, envConfig.OperatorWorkers)
	delegator.Start()

	queue := inmemory.NewQueue(inmemory.Config{
		Buffer:         envConfig.QueueBuffer,
		Workers:        envConfig.QueueWorkers,
		MaxRetries:     envConfig.QueueMaxRetries,
		RetryBackoff:   envConfig.QueueRetryBackoff,
		ThrottleLimit:  envConfig.ThrottleLimit,
		ThrottlePeriod: envConfig.ThrottlePeriod,
	}, logger)

	trigger := scheduler.NewTrigger(dbStorage.Transactions, queue)
	processor := scheduler.NewProcessor(delegator, envConfig.ProcessTimeout, logger)
	// Workers outlive the signal context so in-flight items finish during Stop.
	if err := queue.Start(context.Background(), processor.HandleItem); err != nil {
		logrus.WithError(err).Fatal("queue.Start")
		return
	}

	runner, err := scheduler.NewRunner(trigger, envConfig.ScanSchedule, envConfig.ScanTimezone, logger)
	if err != nil {
		logrus.WithError(err).Fatal("scheduler.NewRunner")
		return
	}
	runner.Start()
	logger.WithField("nextScan", runner.Next()).Info("Scheduler.Started")

	svc := service.NewService(dbStorage, delegator, trigger, queue)
	httpRest := api.Rest{
		Logger:  logger,
		Port:    envConfig.HTTPPort,
		Storage: dbStorage,
		Service: svc,
	}
	if err := httpRest.Serve(ctx); err != nil {
		logger.WithError(err).Error("HttpServer.Serve")
	}

	// Stop producers before consumers: no scan may publish into a stopped queue.
	runner.Stop()
	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := queue.Stop(stopCtx); err != nil {
		logger.WithError(err).Error("Queue.Stop")
	}
	delegator.Stop()
	logger.Info("finance-server stopped")
}
