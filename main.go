package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/FuatYavas/ParkVision/internal/api"
	"github.com/FuatYavas/ParkVision/internal/api/middleware"
	"github.com/FuatYavas/ParkVision/internal/config"
	"github.com/FuatYavas/ParkVision/internal/ingest"
	"github.com/FuatYavas/ParkVision/internal/realtime"
	"github.com/FuatYavas/ParkVision/internal/repository/postgresql"
	"github.com/FuatYavas/ParkVision/internal/service"
	"github.com/FuatYavas/ParkVision/internal/state"
)

func main() {
	cfg := config.Load()

	db, err := postgresql.NewDB(cfg)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer db.Close()

	if err := postgresql.Migrate(db); err != nil {
		log.Fatalf("migrating database: %v", err)
	}
	log.Println("database ready")

	awsSDKCfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatalf("loading AWS SDK config: %v", err)
	}

	sqsClient := sqs.NewFromConfig(awsSDKCfg)
	rekognitionClient := rekognition.NewFromConfig(awsSDKCfg)
	var iotDataPlaneClient *iotdataplane.Client
	if cfg.IoTMQTTEndpoint != "" {
		iotDataPlaneClient = iotdataplane.NewFromConfig(awsSDKCfg, func(o *iotdataplane.Options) {
			endpoint := cfg.IoTMQTTEndpoint
			if !strings.HasPrefix(endpoint, "https://") && !strings.HasPrefix(endpoint, "http://") {
				endpoint = "https://" + endpoint
			}
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	userRepo := postgresql.NewPgUserRepository(db)
	vehicleRepo := postgresql.NewPgVehicleRepository(db)
	lotRepo := postgresql.NewPgParkingLotRepository(db)
	spotRepo := postgresql.NewPgParkingSpotRepository(db)
	reservationRepo := postgresql.NewPgReservationRepository(db)
	reportRepo := postgresql.NewPgReportRepository(db)

	store := state.NewStore()
	detector := state.NewDetector()
	hub := realtime.NewHubWithTimeout(cfg.BroadcastTimeout)

	gateService := service.NewGateService(iotDataPlaneClient, cfg.IoTGateTopic)
	visionService := service.NewVisionService(rekognitionClient, cfg.VisionMinConf)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpirationHours)
	userService := service.NewUserService(userRepo, vehicleRepo)
	parkingService := service.NewParkingService(lotRepo, spotRepo, store, detector, hub)
	reservationService := service.NewReservationService(reservationRepo, spotRepo, store, hub, gateService, cfg.ReservationTTL)
	detectionService := service.NewDetectionService(lotRepo, spotRepo, store, detector, hub)
	reportService := service.NewReportService(reportRepo, lotRepo, store)
	dashboardService := service.NewDashboardService(lotRepo, userRepo, reservationRepo, store)

	if err := parkingService.Hydrate(context.Background()); err != nil {
		log.Fatalf("hydrating spot state: %v", err)
	}

	authMiddleware := middleware.NewAuthMiddleware(authService)

	var wg sync.WaitGroup
	backgroundCtx, cancelBackground := context.WithCancel(context.Background())

	if cfg.SQSReportQueueURL == "" {
		log.Println("warning: SQS_REPORT_QUEUE_URL is not set, queue ingest disabled")
	} else {
		consumer := ingest.NewSQSConsumer(sqsClient, cfg.SQSReportQueueURL, detectionService)
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.Start(backgroundCtx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		runReservationSweep(backgroundCtx, reservationService)
	}()

	router := api.SetupRouter(api.Services{
		Auth:        authService,
		User:        userService,
		Parking:     parkingService,
		Reservation: reservationService,
		Detection:   detectionService,
		Report:      reportService,
		Dashboard:   dashboardService,
		Vision:      visionService,
	}, authMiddleware, hub)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("server listening on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	cancelBackground()
	hub.Shutdown()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		wg.Wait()
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Println("background workers did not stop in time")
	}
	log.Println("server stopped")
}

// runReservationSweep completes expired reservations once a minute.
func runReservationSweep(ctx context.Context, rs *service.ReservationService) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if _, err := rs.CompleteExpired(sweepCtx); err != nil {
				log.Printf("reservation sweep: %v", err)
			}
			cancel()
		}
	}
}
