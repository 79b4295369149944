package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/FuatYavas/ParkVision/internal/domain"
	"github.com/FuatYavas/ParkVision/internal/service"
)

type ParkingSpotHandler struct {
	parkingService *service.ParkingService
}

func NewParkingSpotHandler(ps *service.ParkingService) *ParkingSpotHandler {
	return &ParkingSpotHandler{parkingService: ps}
}

// GET /parking-spots/:spot_id
func (h *ParkingSpotHandler) GetSpotByID(c *gin.Context) {
	spotID, err := strconv.Atoi(c.Param("spot_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spot id"})
		return
	}

	spot, err := h.parkingService.GetSpotByID(c.Request.Context(), spotID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, spot)
}

type spotStatusOverrideDTO struct {
	Status string `json:"status" binding:"required"`
}

// PUT /parking-spots/:spot_id/status
func (h *ParkingSpotHandler) SetSpotStatus(c *gin.Context) {
	spotID, err := strconv.Atoi(c.Param("spot_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spot id"})
		return
	}

	var dto spotStatusOverrideDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, err := domain.ParseSpotStatus(dto.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	spot, err := h.parkingService.SetSpotStatus(c.Request.Context(), spotID, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, spot)
}

// DELETE /parking-spots/:spot_id
func (h *ParkingSpotHandler) DeleteSpot(c *gin.Context) {
	spotID, err := strconv.Atoi(c.Param("spot_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spot id"})
		return
	}

	if err := h.parkingService.DeleteSpot(c.Request.Context(), spotID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
