package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/haatos/simple-qa/internal"
	"github.com/haatos/simple-qa/internal/handler"
	"github.com/haatos/simple-qa/internal/security"
	"github.com/haatos/simple-qa/internal/service"
	"github.com/haatos/simple-qa/internal/settings"
	"github.com/haatos/simple-qa/internal/store"
	"github.com/haatos/simple-qa/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

func main() {
	internal.InitializeConfiguration()
	if exists, _ := util.PathExists(internal.DotEnvPath); exists {
		settings.ReadDotenv(internal.DotEnvPath)
	}
	settings.Settings = settings.NewSettings()

	rdb := store.InitDatabase(true)
	defer rdb.Close()
	rwdb := store.InitDatabase(false)
	defer rwdb.Close()

	dialect := "sqlite"
	if settings.Settings.DatabaseDriver == "pgx" {
		dialect = "postgres"
	}
	store.RunMigrations(rwdb, dialect)

	if err := os.MkdirAll(internal.Config.ReportsDir, os.ModePerm); err != nil {
		log.Fatal("err creating reports directory: ", err)
	}

	catalog, err := service.LoadEnvironmentCatalog(internal.Config.EnvironmentsPath)
	if err != nil {
		log.Fatal("err loading environment catalog: ", err)
	}

	runStore := store.NewRunSQLiteStore(rdb, rwdb)
	agentStore := store.NewAgentSQLiteStore(rdb, rwdb)
	apiKeyStore := store.NewAPIKeySQLiteStore(rdb, rwdb)
	scheduleStore := store.NewScheduleSQLiteStore(rdb, rwdb)

	aesEncrypter := security.NewAESEncrypter()

	collector := service.NewResultCollector(runStore)
	merger := service.NewReportMerger(internal.Config.ReportsDir)
	localLauncher := service.NewLocalLauncher(
		internal.Config.WorkerCommand, settings.Settings.AuthoringAPI,
	)
	sshLauncher := service.NewSSHLauncher(
		agentStore, aesEncrypter,
		internal.Config.WorkerCommand, settings.Settings.AuthoringAPI,
		internal.Config.ReportsDir,
	)
	launcher := service.NewLauncherMux(catalog, localLauncher, sshLauncher)

	progressClients := service.NewSSEClientMap[service.ProgressEvent]()
	statusClients := service.NewSSEClientMap[store.Run]()
	cancelRunMap := service.NewCancelMap[string]()
	runTimeout := time.Duration(internal.Config.RunTimeoutMinutes) * time.Minute

	queue := service.NewRunQueue(
		launcher, collector, merger,
		internal.Config.QueueSize, runTimeout,
		progressClients, statusClients, cancelRunMap,
	)
	go queue.Run()
	defer queue.Shutdown()

	orchestrator := service.NewBatchOrchestrator(
		launcher, collector, merger,
		internal.Config.MaxConcurrentRuns, runTimeout,
		progressClients, statusClients, cancelRunMap,
	)
	go orchestrator.Run()
	defer orchestrator.Shutdown()

	scheduler := service.NewScheduler()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			log.Println("err shutting down scheduler:", err)
		}
	}()

	authoring := service.NewHTTPAuthoringClient(settings.Settings.AuthoringAPI)
	runService := service.NewRunService(
		runStore, scheduleStore,
		queue, orchestrator, scheduler,
		catalog, authoring, merger,
		cancelRunMap, progressClients, statusClients,
	)
	agentService := service.NewAgentService(agentStore, aesEncrypter)
	apiKeyService := service.NewAPIKeyService(apiKeyStore, service.NewUUIDGen())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	apiKeyService.InitializeAPIKey(ctx)
	if err := runService.InitializeSchedules(ctx); err != nil {
		log.Fatal("err initializing schedules: ", err)
	}
	cancel()
	scheduler.Start()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(internal.GetCORSConfig()))
	e.Use(middleware.RateLimiterWithConfig(internal.GetRateLimiterConfig()))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"status": "ok"})
	})

	api := e.Group("/api", handler.APIKeyMiddleware(apiKeyService))
	handler.SetupRunRoutes(api, runService)
	handler.SetupAgentRoutes(api, agentService)
	handler.SetupAPIKeyRoutes(api, apiKeyService)
	handler.SetupScheduleRoutes(api, runService)

	internal.GracefulShutdown(e, settings.Settings.Port)
}
