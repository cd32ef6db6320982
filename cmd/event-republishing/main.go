package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/getAlby/rgbhub.go/common"
	"github.com/getAlby/rgbhub.go/db"
	"github.com/getAlby/rgbhub.go/db/models"
	"github.com/getAlby/rgbhub.go/lib/logging"
	"github.com/getAlby/rgbhub.go/lib/service"
	"github.com/getAlby/rgbhub.go/rabbitmq"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/labstack/gommon/log"
)

// replays the recorded transfer history between START_DATE and END_DATE to
// the event exchange, e.g. after a consumer lost messages
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
	logger := logging.Logger(c.LogFilePath, log.Lvl(c.LogLevel))
	startDate, endDate, err := loadStartAndEndDateFromEnv()
	if err != nil {
		logger.Fatalf("Could not load start and end date from env %v", err)
	}
	if c.RabbitMQUri == "" {
		logger.Fatal("RABBITMQ_URI is required")
	}
	// Open a DB connection based on the configured DATABASE_URI
	dbConn, err := db.Open(c.DBConfig())
	if err != nil {
		logger.Fatalf("Error initializing db connection: %v", err)
	}
	defer dbConn.Close()

	ctx := context.Background()
	result := []models.TransferEvent{}
	err = dbConn.NewSelect().Model(&result).
		Where("created_at > ?", startDate).
		Where("created_at < ?", endDate).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		logger.Fatal(err)
	}
	logger.Infof("Found %d transfer events", len(result))
	if os.Getenv("DRY_RUN") == "true" {
		for _, ev := range result {
			logger.Infof("Would publish transfer event id:%v type:%v reference:%v status:%v", ev.ID, ev.Type, ev.Reference, ev.ToStatus)
		}
		return
	}

	rabbitmqClient, err := rabbitmq.Dial(c.RabbitMQUri,
		rabbitmq.WithLogger(logger),
		rabbitmq.WithEventExchange(c.RabbitMQEventExchange),
	)
	if err != nil {
		logger.Fatal(err)
	}
	// close the connection gently at the end of the runtime
	defer rabbitmqClient.Close()

	events := make(chan common.Event, len(result))
	for i := range result {
		events <- service.EventFromHistory(&result[i])
	}
	close(events)
	subscribe := func() (<-chan common.Event, func(), error) {
		return events, func() {}, nil
	}
	encode := func(ctx context.Context, w io.Writer, event common.Event) error {
		return json.NewEncoder(w).Encode(event)
	}
	// returns once the closed channel is drained
	if err = rabbitmqClient.StartPublishEvents(ctx, subscribe, encode); err != nil {
		sentry.CaptureException(err)
		logger.Fatal(err)
	}
	logger.Infof("Published %d transfer events", len(result))
}

func loadStartAndEndDateFromEnv() (start, end time.Time, err error) {
	start, err = time.Parse(time.RFC3339, os.Getenv("START_DATE"))
	if err != nil {
		return
	}
	end, err = time.Parse(time.RFC3339, os.Getenv("END_DATE"))
	return
}
