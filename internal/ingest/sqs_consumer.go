// Package ingest consumes occupancy reports pushed by edge detection nodes
// through SQS, feeding them into the same pipeline as the HTTP report path.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/FuatYavas/ParkVision/internal/domain"
	"github.com/FuatYavas/ParkVision/internal/service"
)

type queuedReport struct {
	LotID int `json:"parking_lot_id"`
	domain.LotStatusReport
}

type SQSConsumer struct {
	sqsClient        *sqs.Client
	queueURL         string
	detectionService *service.DetectionService
}

func NewSQSConsumer(client *sqs.Client, queueURL string, detectionService *service.DetectionService) *SQSConsumer {
	return &SQSConsumer{
		sqsClient:        client,
		queueURL:         queueURL,
		detectionService: detectionService,
	}
}

// Start long-polls the queue until the context is cancelled. Messages that
// fail with a transient error stay on the queue and reappear after the
// visibility timeout; malformed ones are deleted so they cannot loop.
func (c *SQSConsumer) Start(ctx context.Context) {
	log.Printf("ingest: consuming occupancy reports from %s", c.queueURL)
	for {
		select {
		case <-ctx.Done():
			log.Println("ingest: context cancelled, stopping")
			return
		default:
			receiveInput := &sqs.ReceiveMessageInput{
				QueueUrl:            &c.queueURL,
				MaxNumberOfMessages: 10,
				WaitTimeSeconds:     20,
				VisibilityTimeout:   60,
			}

			result, err := c.sqsClient.ReceiveMessage(ctx, receiveInput)
			if err != nil {
				log.Printf("ingest: receiving messages: %v", err)
				select {
				case <-time.After(5 * time.Second):
				case <-ctx.Done():
					return
				}
				continue
			}

			for _, message := range result.Messages {
				if message.Body == nil {
					c.deleteMessage(ctx, message.ReceiptHandle)
					continue
				}

				err := c.handleMessage(ctx, *message.Body)
				if err == nil || isPermanent(err) {
					if err != nil {
						log.Printf("ingest: dropping unprocessable message: %v", err)
					}
					c.deleteMessage(ctx, message.ReceiptHandle)
				} else {
					log.Printf("ingest: processing message failed, will retry: %v", err)
				}
			}
		}
	}
}

func (c *SQSConsumer) handleMessage(ctx context.Context, body string) error {
	var report queuedReport
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return fmt.Errorf("%w: unmarshalling report: %v", domain.ErrInvalidInput, err)
	}
	if report.LotID <= 0 {
		return fmt.Errorf("%w: missing parking_lot_id", domain.ErrInvalidInput)
	}
	_, err := c.detectionService.IngestLotReport(ctx, report.LotID, report.LotStatusReport)
	return err
}

// isPermanent reports whether retrying the message can never succeed.
func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput)
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	if receiptHandle == nil {
		return
	}
	_, err := c.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &c.queueURL,
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		log.Printf("ingest: deleting message: %v", err)
	}
}
