package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"fulfillment-engine/internal/configs"
	"fulfillment-engine/internal/crm"
	httpdelivery "fulfillment-engine/internal/delivery/http"
	"fulfillment-engine/internal/delivery/kafka"
	"fulfillment-engine/internal/distributor"
	"fulfillment-engine/internal/ordernum"
	"fulfillment-engine/internal/pricing"
	"fulfillment-engine/internal/repository"
	"fulfillment-engine/internal/repository/postgres"
	"fulfillment-engine/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg, err := configs.LoadConfig(".")
	if err != nil {
		logrus.Fatalf("config load: %s", err)
	}
	logrus.Print("config parsed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.ConnectDB(postgres.Config{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		Username: cfg.PostgresUser,
		Password: cfg.PostgresPass,
		DbName:   cfg.PostgresDB,
		SslMode:  cfg.PostgresSSLMode,
	})
	if err != nil {
		logrus.Fatalf("postgres connect: %s", err)
	}
	defer func() {
		if derr := db.Close(); derr != nil {
			logrus.Errorf("db close: %v", derr)
		}
	}()
	logrus.Print("connected to postgres")

	if err := postgres.Migrate(db); err != nil {
		logrus.Fatalf("migrate: %s", err)
	}

	repo := repository.NewRepository(db)

	lastSeq, err := repo.Orders.MaxSequence(cfg.Env())
	if err != nil {
		logrus.Fatalf("seed allocator: %s", err)
	}
	allocator := ordernum.NewAllocator(cfg.Env(), lastSeq)
	logrus.Printf("order number allocator seeded at %d", lastSeq)

	ladder, err := pricing.LoadLadder(cfg.PriceLadderPath)
	if err != nil {
		logrus.Fatalf("price ladder load: %s", err)
	}
	resolver := pricing.NewResolver(ladder)

	submitter := distributor.NewSubmitter(
		distributor.NewClient(cfg.DistributorBaseURL, cfg.DistributorTimeout),
		repo.Submissions,
		cfg.SubmitMaxAttempts,
		cfg.SubmitBaseBackoff,
	)
	dealSync := crm.NewSynchronizer(crm.NewClient(cfg.CrmBaseURL, cfg.CrmTimeout))

	svc := service.NewService(repo, allocator, resolver, submitter, dealSync, cfg.Env())

	if err := svc.WarmProjections(); err != nil {
		logrus.Fatalf("warm cache: %s", err)
	}
	logrus.Print("projection cache warmed from db")

	consumer := kafka.NewConsumer(kafka.Config{
		Brokers:     cfg.KafkaBrokersSlice(),
		GroupID:     cfg.KafkaGroupID,
		Topic:       cfg.KafkaTopic,
		DLQ:         cfg.KafkaDLQ,
		MaxRetries:  cfg.KafkaMaxRetries,
		BaseBackoff: cfg.KafkaBaseBackoff,
	}, svc)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := consumer.Subscribe(ctx); err != nil {
			logrus.Errorf("consumer stopped: %v", err)
			cancel()
		}
	}()
	logrus.Print("kafka subscription started")

	h := httpdelivery.NewHandler(svc)
	srv := new(httpdelivery.Server)

	go func() {
		if err := srv.Run(cfg.HTTPAddr, h.InitRoutes()); err != nil {
			logrus.Errorf("http run: %v", err)
			cancel()
		}
	}()
	logrus.Printf("http server started on %s", cfg.HTTPAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-quit:
		logrus.Print("shutdown signal received")
	case <-ctx.Done():
		logrus.Print("context canceled, shutting down")
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("http shutdown: %s", err)
	}

	cancel()
	if err := consumer.Close(); err != nil {
		logrus.Errorf("consumer close: %s", err)
	}

	wg.Wait()
	logrus.Print("service stopped")
}
