package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	AWSRegion         string
	SQSReportQueueURL string
	IoTMQTTEndpoint   string
	IoTGateTopic      string
	VisionMinConf     float64

	JWTSecret          string
	JWTExpirationHours time.Duration

	BroadcastTimeout time.Duration
	ReservationTTL   time.Duration
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not load .env file: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	broadcastMs, _ := strconv.Atoi(getEnv("WS_BROADCAST_TIMEOUT_MS", "5000"))
	reservationMin, _ := strconv.Atoi(getEnv("RESERVATION_TTL_MINUTES", "30"))
	minConf, _ := strconv.ParseFloat(getEnv("VISION_MIN_CONFIDENCE", "70"), 64)

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "parkvision"),
		DBPassword: getEnv("DB_PASSWORD", "parkvision"),
		DBName:     getEnv("DB_NAME", "parkvision"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		AWSRegion:         getEnv("AWS_REGION", "eu-central-1"),
		SQSReportQueueURL: getEnv("SQS_REPORT_QUEUE_URL", ""),
		IoTMQTTEndpoint:   getEnv("IOT_MQTT_ENDPOINT", ""),
		IoTGateTopic:      getEnv("IOT_GATE_TOPIC", "parkvision/gate/commands"),
		VisionMinConf:     minConf,

		JWTSecret:          getEnv("JWT_SECRET", "change-me-in-production"),
		JWTExpirationHours: time.Duration(jwtExpHours) * time.Hour,

		BroadcastTimeout: time.Duration(broadcastMs) * time.Millisecond,
		ReservationTTL:   time.Duration(reservationMin) * time.Minute,
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
