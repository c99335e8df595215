package main

import (
	"context"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"fulfillment-engine/internal/configs"
	"fulfillment-engine/internal/delivery/kafka"
)

func main() {

	if err := godotenv.Load(); err != nil {
		logrus.Fatalf("failed to load .env: %s", err)
	}

	cfg, err := configs.LoadConfig(".")
	if err != nil {
		logrus.Fatalf("error loading config: %s", err)
	}
	logrus.Print("config loaded")

	pub := kafka.NewPublisher(cfg.KafkaBrokersSlice(), cfg.KafkaTopic)
	defer func() {
		if cerr := pub.Close(); cerr != nil {
			logrus.Errorf("publisher close: %v", cerr)
		}
	}()
	logrus.Print("connected to kafka")

	f, err := os.Open(cfg.SampleEventPath)
	if err != nil {
		logrus.Fatalf("open json file: %s", err)
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		logrus.Fatalf("read json file: %s", err)
	}

	if err := pub.Publish(context.Background(), nil, body); err != nil {
		logrus.Fatalf("publish failed: %s", err)
	}
	logrus.Print("successfully published paid-order event to kafka")
}
