package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/getAlby/rgbhub.go/db"
	"github.com/getAlby/rgbhub.go/db/migrations"
	"github.com/getAlby/rgbhub.go/docs"
	"github.com/getAlby/rgbhub.go/lib/fees"
	"github.com/getAlby/rgbhub.go/lib/logging"
	"github.com/getAlby/rgbhub.go/lib/service"
	"github.com/getAlby/rgbhub.go/lib/transport"
	"github.com/getAlby/rgbhub.go/nodegw"
	"github.com/getAlby/rgbhub.go/rabbitmq"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/uptrace/bun/migrate"
	ddEcho "gopkg.in/DataDog/dd-trace-go.v1/contrib/labstack/echo.v4"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

type flags struct {
	walletMode string
	envFile    string
}

// @title        RgbHub.go
// @version      0.1.0
// @description  Wallet core for an RGB lightning node: assets, on-chain transfers, lightning payments and channels.

// @contact.name   Alby
// @contact.url    https://getalby.com
// @contact.email  hello@getalby.com

// @license.name  GNU GPLv3
// @license.url   https://www.gnu.org/licenses/gpl-3.0.en.html

// @BasePath  /

// @securitydefinitions.oauth2.password  OAuth2Password
// @tokenUrl                             /v1/auth
// @schemes                              https http
func main() {
	f := &flags{}
	rootCmd := &cobra.Command{
		Use:           "rgbhub",
		Short:         "Wallet core for an RGB lightning node",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f)
		},
	}
	rootCmd.Flags().StringVar(&f.walletMode, "wallet-mode", "", "node backend: embedded or remote (overrides WALLET_MODE)")
	rootCmd.Flags().StringVar(&f.envFile, "env-file", ".env", "dotenv file to load")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, f *flags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c := &service.Config{}

	// Load configruation from environment variables
	err := godotenv.Load(f.envFile)
	if err != nil {
		fmt.Printf("Failed to load %s file\n", f.envFile)
	}
	err = envconfig.Process("", c)
	if err != nil {
		return fmt.Errorf("Error loading environment variables: %w", err)
	}
	nodeCfg, err := nodegw.LoadConfig()
	if err != nil {
		return fmt.Errorf("Error loading node config: %w", err)
	}
	if f.walletMode != "" {
		nodeCfg.WalletMode = f.walletMode
		if err = nodeCfg.Validate(); err != nil {
			return err
		}
	}
	feesCfg := &fees.Config{}
	if err = envconfig.Process("", feesCfg); err != nil {
		return fmt.Errorf("Error loading fee estimator config: %w", err)
	}

	// Setup logging to STDOUT or a configrued log file
	logger := logging.Logger(c.LogFilePath, log.Lvl(c.LogLevel))

	// Open a DB connection based on the configured DATABASE_URI
	dbConn, err := db.Open(c.DBConfig())
	if err != nil {
		return fmt.Errorf("Error initializing db connection: %w", err)
	}
	defer dbConn.Close()

	startupCtx, cancelStartup := context.WithTimeout(ctx, 2*time.Minute)
	defer cancelStartup()
	migrator := migrate.NewMigrator(dbConn, migrations.Migrations)
	if err = migrator.Init(startupCtx); err != nil {
		return fmt.Errorf("Error initializing db migrator: %w", err)
	}
	if _, err = migrator.Migrate(startupCtx); err != nil {
		return fmt.Errorf("Error migrating database: %w", err)
	}

	// sentry init needs to happen before the echo middlewares are added
	if c.SentryDSN != "" {
		if err = sentry.Init(sentry.ClientOptions{
			Dsn:              c.SentryDSN,
			IgnoreErrors:     []string{"401"},
			EnableTracing:    c.SentryTracesSampleRate > 0,
			TracesSampleRate: c.SentryTracesSampleRate,
		}); err != nil {
			logger.Errorf("sentry init error: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	gateway, err := nodegw.InitGateway(startupCtx, nodeCfg, logger)
	if err != nil {
		return fmt.Errorf("Error initializing the %s node gateway: %w", nodeCfg.WalletMode, err)
	}
	logger.Infof("Node gateway ready mode:%v network:%v", nodeCfg.WalletMode, nodeCfg.Network)

	svc, err := service.NewRgbHubService(c, dbConn, gateway, nodeCfg.Network, logger)
	if err != nil {
		gateway.Close()
		return err
	}
	svc.WithFees(fees.NewEstimator(gateway, feesCfg, logger))
	defer svc.Close()

	// If no RABBITMQ_URI was provided we will not attempt to create a client
	// No rabbitmq features will be available in this case.
	if c.RabbitMQUri != "" {
		svc.RabbitMQClient, err = rabbitmq.Dial(c.RabbitMQUri,
			rabbitmq.WithLogger(logger),
			rabbitmq.WithEventExchange(c.RabbitMQEventExchange),
			rabbitmq.WithRefreshExchange(c.RabbitMQRefreshExchange),
			rabbitmq.WithRefreshConsumerQueueName(c.RabbitMQRefreshQueueName),
		)
		if err != nil {
			return err
		}
	}

	if err = svc.Start(startupCtx); err != nil {
		return fmt.Errorf("Error loading wallet state: %w", err)
	}

	//init echo server
	e := transport.InitEcho(c, logger)
	//if Datadog is configured, add datadog middleware
	if c.DatadogAgentUrl != "" {
		tracer.Start(tracer.WithAgentAddr(c.DatadogAgentUrl))
		defer tracer.Stop()
		e.Use(ddEcho.Middleware(ddEcho.WithServiceName("rgbhub.go")))
	}
	var echoPrometheus *echo.Echo
	if c.EnablePrometheus {
		echoPrometheus = transport.InitPrometheusEcho(logger, e)
	}
	if err = transport.RegisterEndpoints(svc, e, logger); err != nil {
		return err
	}

	//Swagger API spec
	docs.SwaggerInfo.Host = c.Host
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	var backgroundWg sync.WaitGroup
	backGroundCtx, cancelBackground := context.WithCancel(ctx)
	defer cancelBackground()

	backgroundWg.Add(1)
	go func() {
		defer backgroundWg.Done()
		if err := svc.StartRefreshRoutine(backGroundCtx); err != nil && err != context.Canceled {
			sentry.CaptureException(err)
			svc.Logger.Error(err)
		}
		svc.Logger.Info("Refresh routine done")
	}()

	//Start webhook subscription
	if c.WebhookUrl != "" {
		backgroundWg.Add(1)
		go func() {
			defer backgroundWg.Done()
			svc.StartWebhookSubscription(backGroundCtx, c.WebhookUrl)
			svc.Logger.Info("Webhook routine done")
		}()
	}
	if svc.RabbitMQClient != nil {
		backgroundWg.Add(2)
		go func() {
			defer backgroundWg.Done()
			if err := svc.StartEventPublisher(backGroundCtx); err != nil {
				svc.Logger.Error(err)
				sentry.CaptureException(err)
			}
			svc.Logger.Info("Rabbit event publisher done")
		}()
		go func() {
			defer backgroundWg.Done()
			if err := svc.StartRefreshRequestRoutine(backGroundCtx); err != nil {
				svc.Logger.Error(err)
				sentry.CaptureException(err)
			}
			svc.Logger.Info("Rabbit refresh consumer done")
		}()
	}

	if echoPrometheus != nil {
		go func() {
			echoPrometheus.Logger.Infof("Starting prometheus on port %d", c.PrometheusPort)
			if err := echoPrometheus.Start(fmt.Sprintf(":%d", c.PrometheusPort)); err != nil && err != http.ErrServerClosed {
				echoPrometheus.Logger.Error(err)
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := e.Start(fmt.Sprintf(":%v", c.Port)); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	var fatal error
	select {
	case sig := <-signals:
		// subscribers see the request before the server goes away
		svc.RequestShutdown(sig.String())
		logger.Infof("Shutdown requested signal:%v", sig)
	case fatal = <-serverErr:
		logger.Errorf("Server stopped error:%v", fatal)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error(err)
	}
	if echoPrometheus != nil {
		if err := echoPrometheus.Shutdown(shutdownCtx); err != nil {
			logger.Error(err)
		}
	}
	//Wait for graceful shutdown of background routines
	cancelBackground()
	backgroundWg.Wait()
	logger.Info("RgbHub exiting gracefully. Goodbye.")
	return fatal
}
