package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/google/uuid"
)

// GateService publishes open commands to lot entry barriers over MQTT.
// It implements GateOpener; a nil client makes every publish a logged no-op
// so deployments without gate hardware run unchanged.
type GateService struct {
	iotDataClient *iotdataplane.Client
	topic         string
}

func NewGateService(client *iotdataplane.Client, topic string) *GateService {
	return &GateService{iotDataClient: client, topic: topic}
}

type gateCommand struct {
	CommandID       string `json:"command_id"`
	Command         string `json:"command"`
	LotID           int    `json:"parking_lot_id"`
	ReservationCode string `json:"reservation_code"`
	IssuedAt        string `json:"issued_at"`
}

func (s *GateService) OpenGate(ctx context.Context, lotID int, reservationCode string) error {
	if s.iotDataClient == nil {
		log.Printf("gate: no IoT client configured, skipping open command for lot %d", lotID)
		return nil
	}

	payload, err := json.Marshal(gateCommand{
		CommandID:       uuid.NewString(),
		Command:         "open",
		LotID:           lotID,
		ReservationCode: reservationCode,
		IssuedAt:        time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshalling gate command: %w", err)
	}

	topic := fmt.Sprintf("%s/%d", s.topic, lotID)
	_, err = s.iotDataClient.Publish(ctx, &iotdataplane.PublishInput{
		Topic:   aws.String(topic),
		Qos:     1,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("publishing gate command to %s: %w", topic, err)
	}
	log.Printf("gate: open command published to %s", topic)
	return nil
}
