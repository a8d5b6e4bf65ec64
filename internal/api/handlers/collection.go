package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/cardboard-compass/backend/internal/models"
	"github.com/codyseavey/cardboard-compass/backend/internal/services"
)

type CollectionHandler struct {
	collection *services.CollectionService
	snapshots  *services.SnapshotService
}

func NewCollectionHandler(collection *services.CollectionService, snapshots *services.SnapshotService) *CollectionHandler {
	return &CollectionHandler{
		collection: collection,
		snapshots:  snapshots,
	}
}

// GetCollection lists the owner's cards, optionally narrowed by ?category= or ?q=
func (h *CollectionHandler) GetCollection(c *gin.Context) {
	var (
		cards []models.Card
		err   error
	)

	switch {
	case c.Query("category") != "":
		cards, err = h.collection.FilterByCategory(c.Request.Context(), models.Category(strings.ToLower(c.Query("category"))))
	case c.Query("q") != "":
		cards, err = h.collection.Search(c.Request.Context(), c.Query("q"))
	default:
		cards, err = h.collection.List(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, cards)
}

func (h *CollectionHandler) AddToCollection(c *gin.Context) {
	var req models.NewCard
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.collection.Add(c.Request.Context(), req)
	if err != nil {
		if id != "" {
			// Card saved; statistics catch up on the next mutation
			c.JSON(http.StatusCreated, gin.H{"id": id, "warning": "collection statistics could not be updated"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.AddCardResponse{ID: id})
}

func (h *CollectionHandler) GetCard(c *gin.Context) {
	card, err := h.collection.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *CollectionHandler) UpdateCard(c *gin.Context) {
	var req models.CardUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	if err := h.collection.Update(c.Request.Context(), id, req); err != nil {
		respondError(c, err)
		return
	}

	card, err := h.collection.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

// UpdatePrices replaces the card's price snapshot and records history points
func (h *CollectionHandler) UpdatePrices(c *gin.Context) {
	var req models.PriceHistory
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	if err := h.collection.UpdatePrices(c.Request.Context(), id, req); err != nil {
		respondError(c, err)
		return
	}

	card, err := h.collection.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

// DeleteCard succeeds for ids that do not exist
func (h *CollectionHandler) DeleteCard(c *gin.Context) {
	if err := h.collection.Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CollectionHandler) GetStats(c *gin.Context) {
	stats, err := h.collection.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// TakeSnapshot records today's collection value on demand
func (h *CollectionHandler) TakeSnapshot(c *gin.Context) {
	snapshot, err := h.snapshots.ForceTakeSnapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}
