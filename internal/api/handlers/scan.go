package handlers

import (
	"encoding/base64"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/cardboard-compass/backend/internal/services"
)

type ScanHandler struct {
	scanner    *services.ScannerService
	collection *services.CollectionService
	images     *services.ImageStorageService // optional
}

func NewScanHandler(scanner *services.ScannerService, collection *services.CollectionService, images *services.ImageStorageService) *ScanHandler {
	return &ScanHandler{
		scanner:    scanner,
		collection: collection,
		images:     images,
	}
}

// ScanRequest carries a base64-encoded camera frame. With Add set, a
// recognized card goes straight into the collection.
type ScanRequest struct {
	ImageData string `json:"image_data"`
	Add       bool   `json:"add"`
}

type ScanResponse struct {
	Match  bool                  `json:"match"`
	Card   *services.Recognition `json:"card,omitempty"`
	CardID string                `json:"card_id,omitempty"`
}

func (h *ScanHandler) Scan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.ImageData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image data"})
		return
	}

	rec, err := h.scanner.Scan(c.Request.Context(), image)
	if err != nil {
		respondError(c, err)
		return
	}
	if rec == nil {
		c.JSON(http.StatusOK, ScanResponse{Match: false})
		return
	}

	resp := ScanResponse{Match: true, Card: rec}
	if req.Add {
		card := rec.ToNewCard()
		var frame string
		if h.images != nil {
			// The frame is kept as the card picture; a bad frame only loses the picture
			if filename, err := h.images.SaveImage(image); err == nil {
				frame = filename
				card.ImageURL = h.images.URL(filename)
			} else {
				log.Printf("Scan: not keeping frame: %v", err)
			}
		}

		id, err := h.collection.Add(c.Request.Context(), card)
		if err != nil && id == "" {
			if frame != "" {
				if derr := h.images.DeleteImage(frame); derr != nil {
					log.Printf("Scan: failed to remove frame %s: %v", frame, derr)
				}
			}
			respondError(c, err)
			return
		}
		resp.CardID = id
	}
	c.JSON(http.StatusOK, resp)
}

type FrameQualityRequest struct {
	Brightness float64 `json:"brightness"`
	Blur       float64 `json:"blur"`
}

// AnalyzeFrame grades lighting and focus and reports whether a card was detected
func (h *ScanHandler) AnalyzeFrame(c *gin.Context) {
	var req FrameQualityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quality := services.AnalyzeFrameQuality(req.Brightness, req.Blur)
	c.JSON(http.StatusOK, gin.H{
		"is_good_quality": quality.IsGoodQuality,
		"message":         quality.Message,
		"card_in_frame":   h.scanner.IsCardInFrame(),
	})
}

type PositionRequest struct {
	Card        services.Bounds `json:"card"`
	FrameWidth  float64         `json:"frame_width"`
	FrameHeight float64         `json:"frame_height"`
}

func (h *ScanHandler) Position(c *gin.Context) {
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.FrameWidth <= 0 || req.FrameHeight <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "frame_width and frame_height must be positive"})
		return
	}

	feedback := services.PositionFeedback(req.Card, req.FrameWidth, req.FrameHeight)
	c.JSON(http.StatusOK, gin.H{
		"well_placed": feedback == "",
		"feedback":    feedback,
	})
}
