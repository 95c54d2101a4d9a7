package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CoinPulse/internal/service/binance"
	"CoinPulse/internal/usecase"
	pkgch "CoinPulse/pkg/clickhouse"
	"CoinPulse/pkg/config"
	xhttp "CoinPulse/pkg/http"
	pkgkafka "CoinPulse/pkg/kafka"
	applogger "CoinPulse/pkg/logger"
	"CoinPulse/pkg/queue"
)

// App owns the process lifecycle: the HTTP API, the live price ticker, the
// optional Kafka persistence consumer and the Redis save queue, with ordered
// shutdown on SIGINT/SIGTERM.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	ticker     *binance.Ticker
	consumer   *pkgkafka.Consumer
	kh         *usecase.KafkaPredictionsHandler
	saveQueue  *queue.RedisQueue
	processor  *usecase.PredictionProcessor
	chClient   *pkgch.Client
	httpServer *xhttp.Server
}

func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	ticker *binance.Ticker,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaPredictionsHandler,
	saveQueue *queue.RedisQueue,
	processor *usecase.PredictionProcessor,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		ticker:    ticker,
		consumer:  consumer,
		kh:        kh,
		saveQueue: saveQueue,
		processor: processor,
		chClient:  chClient,
	}
}

// Run starts every component and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.ticker != nil {
		go a.ticker.Run(ctx)
		a.log.Info("price ticker started", applogger.Strings("symbols", a.cfg.Ticker.Symbols))
	}

	if a.saveQueue != nil {
		if err := a.saveQueue.Start(); err != nil {
			a.log.Error("save queue start error", applogger.Error(err))
			return err
		}
		a.saveQueue.StartRetryProcessor()
		a.log.Info("save queue started")
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops components in reverse of start order: stop taking requests,
// drain the queue and consumer, then close storage.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.ticker != nil {
		a.ticker.Close()
	}

	if a.saveQueue != nil {
		queueCtx, qcancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := a.saveQueue.Stop(queueCtx); err != nil {
			a.log.Warn("save queue stop error", applogger.Error(err))
		}
		qcancel()
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.processor != nil {
		a.processor.Close()
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.RemoveCollector()
	a.log.Info("shutdown complete")
	return nil
}
