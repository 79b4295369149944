package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/FuatYavas/ParkVision/internal/domain"
	"github.com/FuatYavas/ParkVision/internal/service"
)

// CVHandler is the HTTP ingest surface for the detection pipeline.
type CVHandler struct {
	detectionService *service.DetectionService
	visionService    *service.VisionService
}

func NewCVHandler(ds *service.DetectionService, vs *service.VisionService) *CVHandler {
	return &CVHandler{detectionService: ds, visionService: vs}
}

// PUT /cv/parking-lots/:id/status
func (h *CVHandler) UpdateLotStatus(c *gin.Context) {
	lotID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parking lot id"})
		return
	}

	var report domain.LotStatusReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	propagated, err := h.detectionService.IngestLotReport(c.Request.Context(), lotID, report)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parking_lot_id": lotID, "propagated": propagated})
}

// PUT /cv/parking-spots/:spot_id/status
func (h *CVHandler) UpdateSpotStatus(c *gin.Context) {
	spotID, err := strconv.Atoi(c.Param("spot_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spot id"})
		return
	}

	var report domain.SpotStatusReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	spot, err := h.detectionService.IngestSpotReport(c.Request.Context(), spotID, report)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, spot)
}

// POST /cv/events
func (h *CVHandler) PublishEvent(c *gin.Context) {
	var event domain.CVEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.detectionService.PublishEvent(c.Request.Context(), event); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "broadcast"})
}

// GET /cv/parking-lots/:id/detections
func (h *CVHandler) GetDetections(c *gin.Context) {
	lotID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parking lot id"})
		return
	}

	detections, err := h.detectionService.LatestDetections(c.Request.Context(), lotID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parking_lot_id": lotID, "detections": detections})
}

// POST /cv/classify-frame
// Accepts a raw image body and returns vehicle detections from Rekognition.
func (h *CVHandler) ClassifyFrame(c *gin.Context) {
	if h.visionService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vision classification is not configured"})
		return
	}

	width, _ := strconv.Atoi(c.DefaultQuery("width", "1920"))
	height, _ := strconv.Atoi(c.DefaultQuery("height", "1080"))

	imageBytes, err := io.ReadAll(io.LimitReader(c.Request.Body, 10<<20))
	if err != nil || len(imageBytes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image body is required"})
		return
	}

	detections, err := h.visionService.DetectVehicles(c.Request.Context(), imageBytes, width, height)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detections": detections, "count": len(detections)})
}
