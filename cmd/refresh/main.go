package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/getAlby/rgbhub.go/db"
	"github.com/getAlby/rgbhub.go/lib/logging"
	"github.com/getAlby/rgbhub.go/lib/service"
	"github.com/getAlby/rgbhub.go/nodegw"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/labstack/gommon/log"
)

// runs a single reconciliation cycle against the node and exits, for cron
// style setups that do not keep the server running
func main() {

	c := &service.Config{}

	// Load configruation from environment variables
	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("Failed to load .env file")
	}
	err = envconfig.Process("", c)
	if err != nil {
		fmt.Printf("Error loading environment variables: %v\n", err)
		os.Exit(1)
	}

	// Setup logging to STDOUT or a configrued log file
	logger := logging.Logger(c.LogFilePath, log.Lvl(c.LogLevel))

	if c.SentryDSN != "" {
		if err = sentry.Init(sentry.ClientOptions{Dsn: c.SentryDSN}); err != nil {
			logger.Errorf("sentry init error: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Open a DB connection based on the configured DATABASE_URI
	dbConn, err := db.Open(c.DBConfig())
	if err != nil {
		logger.Fatalf("Error initializing db connection: %v", err)
	}
	defer dbConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	nodeCfg, err := nodegw.LoadConfig()
	if err != nil {
		logger.Fatalf("Failed to load node config %v", err)
	}
	if nodeCfg.WalletMode != nodegw.REMOTE_WALLET_MODE {
		logger.Fatalf("The refresh job needs a running node, got wallet mode %s", nodeCfg.WalletMode)
	}
	gateway, err := nodegw.InitGateway(ctx, nodeCfg, logger)
	if err != nil {
		logger.Fatalf("Error initializing the node gateway: %v", err)
	}

	svc, err := service.NewRgbHubService(c, dbConn, gateway, nodeCfg.Network, logger)
	if err != nil {
		logger.Fatal(err)
	}
	defer svc.Close()
	if err = svc.Start(ctx); err != nil {
		logger.Fatalf("Error loading wallet state: %v", err)
	}

	snapshot, err := svc.Refresh(ctx)
	if err != nil {
		sentry.CaptureException(err)
		svc.Logger.Error(err)
		return
	}
	logger.Infof("Refresh done version:%v assets:%v channels:%v transfers:%v payments:%v",
		snapshot.Version, len(snapshot.Assets), len(snapshot.Channels), len(snapshot.Transfers), len(snapshot.Payments))
}
