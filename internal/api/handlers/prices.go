package handlers

import (
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codyseavey/cardboard-compass/backend/internal/chart"
	"github.com/codyseavey/cardboard-compass/backend/internal/metrics"
	"github.com/codyseavey/cardboard-compass/backend/internal/models"
	"github.com/codyseavey/cardboard-compass/backend/internal/services"
)

// Limits on client-requested chart sizes
const (
	minChartSize = 100
	maxChartSize = 2000
)

type PriceHandler struct {
	collection *services.CollectionService
	snapshots  *services.SnapshotService
	pngCache   *lru.Cache[uint64, []byte] // svg hash -> png, identical charts render once
}

func NewPriceHandler(collection *services.CollectionService, snapshots *services.SnapshotService, cacheSize int) (*PriceHandler, error) {
	cache, err := lru.New[uint64, []byte](cacheSize)
	if err != nil {
		return nil, err
	}
	return &PriceHandler{
		collection: collection,
		snapshots:  snapshots,
		pngCache:   cache,
	}, nil
}

// GetCardHistory charts one card's price series.
// Query: source=tcgplayer|ebay_au, window=1D..1Y, width, height, format=json|svg|png
func (h *PriceHandler) GetCardHistory(c *gin.Context) {
	source := models.ParsePriceSource(c.Query("source"))

	series, err := h.collection.PriceSeries(c.Request.Context(), c.Param("id"), source)
	if err != nil {
		respondError(c, err)
		return
	}
	h.renderChart(c, series)
}

// GetValueHistory charts the owner's daily collection value.
// Query: currency=USD|AUD plus the chart parameters of GetCardHistory
func (h *PriceHandler) GetValueHistory(c *gin.Context) {
	currency := models.NormalizeCurrency(c.Query("currency"))

	series, err := h.snapshots.CallerHistory(c.Request.Context(), currency)
	if err != nil {
		respondError(c, err)
		return
	}
	h.renderChart(c, series)
}

func (h *PriceHandler) renderChart(c *gin.Context, series []models.PricePoint) {
	frame, err := parseFrame(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	window := chart.Window(strings.ToUpper(c.DefaultQuery("window", string(chart.Window1M))))
	ch, err := chart.Build(series, window, frame)
	if err != nil {
		respondError(c, err)
		return
	}

	switch strings.ToLower(c.DefaultQuery("format", "json")) {
	case "svg":
		metrics.ChartRendersTotal.WithLabelValues("svg").Inc()
		c.Data(http.StatusOK, "image/svg+xml", ch.SVG())
	case "png":
		data, err := h.renderPNG(ch)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render chart"})
			return
		}
		c.Data(http.StatusOK, "image/png", data)
	default:
		metrics.ChartRendersTotal.WithLabelValues("json").Inc()
		c.JSON(http.StatusOK, ch)
	}
}

// renderPNG rasterizes the chart, reusing earlier renders of identical charts
func (h *PriceHandler) renderPNG(ch *chart.Chart) ([]byte, error) {
	hasher := fnv.New64a()
	hasher.Write(ch.SVG())
	hasher.Write([]byte{byte(ch.Frame.Width >> 8), byte(ch.Frame.Width), byte(ch.Frame.Height >> 8), byte(ch.Frame.Height)})
	key := hasher.Sum64()

	if data, ok := h.pngCache.Get(key); ok {
		metrics.ChartCacheHits.Inc()
		return data, nil
	}
	metrics.ChartCacheMisses.Inc()

	data, err := ch.PNG()
	if err != nil {
		return nil, err
	}
	metrics.ChartRendersTotal.WithLabelValues("png").Inc()
	h.pngCache.Add(key, data)
	return data, nil
}

func parseFrame(c *gin.Context) (chart.Frame, error) {
	frame := chart.DefaultFrame
	for _, dim := range []struct {
		name string
		dst  *int
	}{
		{"width", &frame.Width},
		{"height", &frame.Height},
	} {
		v := c.Query(dim.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < minChartSize || n > maxChartSize {
			return chart.Frame{}, errInvalidDimension(dim.name)
		}
		*dim.dst = n
	}
	return frame, nil
}

type errInvalidDimension string

func (e errInvalidDimension) Error() string {
	return string(e) + " must be an integer between " + strconv.Itoa(minChartSize) + " and " + strconv.Itoa(maxChartSize)
}
