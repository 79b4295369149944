package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/FuatYavas/ParkVision/internal/domain"
)

// vehicleLabels are the Rekognition labels counted as parked vehicles.
var vehicleLabels = map[string]bool{
	"Car":        true,
	"Truck":      true,
	"Van":        true,
	"Pickup":     true,
	"Motorcycle": true,
	"Bus":        true,
}

// VisionService classifies camera frames through Rekognition. It is an
// alternative producer for the detection ingest path, used by deployments
// without their own edge pipeline.
type VisionService struct {
	client        *rekognition.Client
	minConfidence float64
}

func NewVisionService(client *rekognition.Client, minConfidence float64) *VisionService {
	return &VisionService{client: client, minConfidence: minConfidence}
}

// DetectVehicles runs label detection on a frame and returns one detection
// per recognized vehicle instance. Bounding boxes are scaled to the given
// frame dimensions.
func (s *VisionService) DetectVehicles(ctx context.Context, imageBytes []byte, frameWidth, frameHeight int) ([]domain.Detection, error) {
	if s.client == nil {
		return nil, fmt.Errorf("rekognition client is not configured")
	}

	input := &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: imageBytes},
		MinConfidence: aws.Float32(float32(s.minConfidence)),
	}
	result, err := s.client.DetectLabels(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("rekognition DetectLabels: %w", err)
	}

	detections := []domain.Detection{}
	for _, label := range result.Labels {
		if label.Name == nil || !vehicleLabels[*label.Name] {
			continue
		}
		for _, instance := range label.Instances {
			if instance.BoundingBox == nil || instance.Confidence == nil {
				continue
			}
			box := instance.BoundingBox
			detections = append(detections, domain.Detection{
				Label:      *label.Name,
				Confidence: float64(*instance.Confidence),
				Geometry: domain.DetectionGeometry{
					X:      scale(box.Left, frameWidth),
					Y:      scale(box.Top, frameHeight),
					Width:  scale(box.Width, frameWidth),
					Height: scale(box.Height, frameHeight),
				},
			})
		}
	}
	log.Printf("vision: %d vehicle(s) detected in frame", len(detections))
	return detections, nil
}

func scale(ratio *float32, size int) int {
	if ratio == nil {
		return 0
	}
	return int(float64(*ratio) * float64(size))
}
