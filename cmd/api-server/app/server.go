package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	swagger "github.com/arsmn/fiber-swagger/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"foresight-api-server/cmd/api-server/app/options"
	"foresight-api-server/internal/alert"
	"foresight-api-server/internal/api/anomaly"
	"foresight-api-server/internal/api/build"
	"foresight-api-server/internal/api/cost"
	"foresight-api-server/internal/api/rightsizing"
	"foresight-api-server/internal/api/scaling"
	cache2 "foresight-api-server/internal/cache"
	db "foresight-api-server/internal/database"
	"foresight-api-server/internal/timeseries"
	"foresight-api-server/internal/worker"
)

type Server struct {
	app    *fiber.App
	db     *gorm.DB
	remote *cache2.RemoteCache
	worker *worker.Worker
	logger *zap.Logger
}

func NewServer(opts *options.Options, logger *zap.Logger, errCh chan<- error) *Server {
	// connect TimescaleDB (postgres)
	db, err := db.Connect()
	if err != nil {
		logger.Fatal("Unable to connect to TimescaleDB", zap.Error(err))
	}

	cache, err := cache2.NewCache()
	if err != nil {
		logger.Fatal("Unable to init cache", zap.Error(err))
	}
	remote, err := cache2.NewRemoteCache()
	if err != nil {
		logger.Fatal("Unable to init remote cache", zap.Error(err))
	}

	worker, err := worker.NewWorker(logger, errCh)
	if err != nil {
		logger.Fatal("Unable to initialize worker", zap.Error(err))
	}

	notifier, err := alert.NewNotifier(logger.Named("alert"))
	if err != nil {
		logger.Fatal("Unable to initialize alert notifier", zap.Error(err))
	}

	reader := timeseries.NewReader(db)

	app := fiber.New(fiber.Config{
		AppName: "Foresight API Server",
		Prefork: false,
	})

	app.Use(cors.New())
	app.Use(compress.New())
	app.Use(etag.New())
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] [${ip}:${port}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	if *opts.Mode == "debug" {
		app.Use(pprof.New())
	}

	v1 := app.Group("/api/v1/")

	// scaling forecaster
	scalingLogger := logger.Named("scaling")
	scalingService, err := scaling.NewScalingService(cache, remote, worker, reader, scalingLogger)
	if err != nil {
		logger.Fatal("Unable to initialize scaling service", zap.Error(err))
	}
	scaling.ScalingRouter(v1, scalingService, scalingLogger)

	// anomaly detector
	anomalyLogger := logger.Named("anomaly")
	anomalyRepository := anomaly.NewAnomalyRepository(db)
	anomalyService, err := anomaly.NewAnomalyService(cache, remote, reader, anomalyRepository, notifier, anomalyLogger)
	if err != nil {
		logger.Fatal("Unable to initialize anomaly service", zap.Error(err))
	}
	anomaly.AnomalyRouter(v1, anomalyService, anomalyLogger)

	// cost forecaster
	costLogger := logger.Named("cost")
	costRepository := cost.NewCostRepository(db)
	costService, err := cost.NewCostService(cache, remote, reader, costRepository, costLogger)
	if err != nil {
		logger.Fatal("Unable to initialize cost service", zap.Error(err))
	}
	cost.CostRouter(v1, costService, costLogger)

	// build analyzer
	buildLogger := logger.Named("build")
	buildRepository := build.NewBuildRepository(db)
	buildService, err := build.NewBuildService(reader, buildRepository, buildLogger)
	if err != nil {
		logger.Fatal("Unable to initialize build service", zap.Error(err))
	}
	build.BuildRouter(v1, buildService, buildLogger)

	// resource right-sizer
	rightsizingLogger := logger.Named("rightsizing")
	rightsizingService, err := rightsizing.NewRightsizingService(cache, remote, reader, rightsizingLogger)
	if err != nil {
		logger.Fatal("Unable to initialize rightsizing service", zap.Error(err))
	}
	rightsizing.RightsizingRouter(v1, rightsizingService, rightsizingLogger)

	app.Get("/dashboard", monitor.New())

	app.Get("/swagger/*", swagger.Handler) // default

	app.All("*", func(c *fiber.Ctx) error {
		errorMessage := fmt.Sprintf("Route '%s' does not exist in this API!", c.OriginalURL())

		return c.Status(fiber.StatusNotFound).JSON(&fiber.Map{
			"status":  "fail",
			"message": errorMessage,
		})
	})

	return &Server{
		app:    app,
		db:     db,
		remote: remote,
		worker: worker,
		logger: logger,
	}
}

func (app *Server) Listen(port int, certFile, keyFile *string) error {
	app.logger.Info("Starting Foresight api-server ...")

	address := fmt.Sprintf(":%d", port)
	if certFile != nil && keyFile != nil {
		if *certFile != "" && *keyFile != "" {
			return app.app.ListenTLS(address, *certFile, *keyFile)
		}
	}
	return app.app.Listen(address)
}

func (app *Server) Shutdown(parentCtx context.Context) error {
	g, ctx := errgroup.WithContext(parentCtx)
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	g.Go(func() error {
		if err := app.app.Shutdown(); err != nil {
			return err
		}
		return nil
	})
	g.Go(func() error {
		app.worker.Stop(ctx)
		// the remote cache must close after in-flight tasks finish
		if err := app.remote.Close(); err != nil {
			return err
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return nil
}

func Run(opts *options.Options, logger *zap.Logger) error {
	// Start api-server
	apiServerError := make(chan error)

	server := NewServer(opts, logger, apiServerError)

	go func() {
		if err := server.Listen(*opts.Port, opts.CertFile, opts.KeyFile); err != nil && err != http.ErrServerClosed {
			logger.Error("RunTLS for api-server failed", zap.Error(err))
			apiServerError <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutdown server ...")

		ctx := context.Background()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("close api-server failed", zap.Error(err))
			return err
		}
	case err := <-apiServerError:
		return err
	}

	return nil
}
