package services

import (
	"context"
	"log"
	"math"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/codyseavey/cardboard-compass/backend/internal/errtrack"
	"github.com/codyseavey/cardboard-compass/backend/internal/metrics"
	"github.com/codyseavey/cardboard-compass/backend/internal/models"
)

// Frame placement limits for a card held up to the camera
const (
	positionTolerance = 50.0 // pixels from frame center
	minCardArea       = 0.4  // card must cover at least 40% of the frame
	maxCardArea       = 0.9
)

// Recognition is a card identified from a camera frame
type Recognition struct {
	Name         string              `json:"name"`
	Set          string              `json:"set"`
	Number       string              `json:"number,omitempty"`
	Rarity       string              `json:"rarity,omitempty"`
	Confidence   int                 `json:"confidence"` // 0-100
	Category     models.Category     `json:"category"`
	PriceHistory models.PriceHistory `json:"price_history"`
}

// ToNewCard converts the recognition into a card ready to be added
func (r Recognition) ToNewCard() models.NewCard {
	return models.NewCard{
		Name:         r.Name,
		Set:          r.Set,
		Number:       r.Number,
		Rarity:       r.Rarity,
		Category:     r.Category,
		PriceHistory: r.PriceHistory,
	}
}

// FrameQuality is the verdict on a frame's lighting and focus
type FrameQuality struct {
	IsGoodQuality bool   `json:"is_good_quality"`
	Message       string `json:"message,omitempty"`
}

// Bounds is a rectangle in frame pixels
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ScannerService is a stand-in recognizer: it waits, then answers with one
// of a fixed set of known cards. No image analysis is performed.
type ScannerService struct {
	delay     time.Duration
	threshold int
	limiter   *rate.Limiter
	reporter  errtrack.Reporter

	pick   func(n int) int
	chance func() float64
	now    func() time.Time
}

// NewScannerService creates a scanner allowing perMinute scans with a burst of
// the same size. A non-positive perMinute disables the limit.
func NewScannerService(delay time.Duration, threshold, perMinute int, reporter errtrack.Reporter) *ScannerService {
	if reporter == nil {
		reporter = errtrack.Nop{}
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if perMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
	return &ScannerService{
		delay:     delay,
		threshold: threshold,
		limiter:   limiter,
		reporter:  reporter,
		pick:      rand.Intn,
		chance:    rand.Float64,
		now:       time.Now,
	}
}

// Scan "recognizes" the card in image. It returns nil without error when
// the recognition confidence is below the threshold.
func (s *ScannerService) Scan(ctx context.Context, image []byte) (*Recognition, error) {
	const site = "scanner/scan"
	start := time.Now()

	if len(image) == 0 {
		return nil, invalid("image is required")
	}
	if !s.limiter.Allow() {
		metrics.ScansTotal.WithLabelValues("rate_limited").Inc()
		return nil, ErrScanRateLimited
	}

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		metrics.ScansTotal.WithLabelValues("cancelled").Inc()
		s.reporter.Capture(ctx, ctx.Err(), errtrack.Fields{"context": site})
		return nil, ctx.Err()
	case <-timer.C:
	}

	known := s.knownCards()
	result := known[s.pick(len(known))]
	metrics.ScanDuration.Observe(time.Since(start).Seconds())

	if result.Confidence < s.threshold {
		metrics.ScansTotal.WithLabelValues("no_match").Inc()
		log.Printf("Scanner: %s below confidence threshold (%d < %d)", result.Name, result.Confidence, s.threshold)
		return nil, nil
	}

	metrics.ScansTotal.WithLabelValues("match").Inc()
	return &result, nil
}

func (s *ScannerService) knownCards() []Recognition {
	now := s.now()
	today := now.Format("2006-01-02")

	return []Recognition{
		{
			Name:       "Charizard VMAX",
			Set:        "Darkness Ablaze",
			Number:     "020/189",
			Rarity:     "Ultra Rare",
			Confidence: 95,
			Category:   models.CategoryPokemon,
			PriceHistory: models.PriceHistory{
				TCGPlayer: models.TCGPlayerPrices{Market: 89.99, Low: 75, Mid: 90, High: 120, LastUpdated: &now},
				EbayAU:    models.EbaySale{LastSold: 135.50, LastSoldDate: today},
			},
		},
		{
			Name:       "Black Lotus",
			Set:        "Alpha",
			Number:     "232",
			Rarity:     "Rare",
			Confidence: 92,
			Category:   models.CategoryMagic,
			PriceHistory: models.PriceHistory{
				TCGPlayer: models.TCGPlayerPrices{Market: 25000, Low: 20000, Mid: 25000, High: 30000, LastUpdated: &now},
				EbayAU:    models.EbaySale{LastSold: 38000, LastSoldDate: today},
			},
		},
	}
}

// IsCardInFrame simulates card edge detection; it succeeds 70% of the time
func (s *ScannerService) IsCardInFrame() bool {
	return s.chance() > 0.3
}

// AnalyzeFrameQuality checks normalized brightness and blur (both 0-1)
func AnalyzeFrameQuality(brightness, blur float64) FrameQuality {
	switch {
	case brightness < 0.3:
		return FrameQuality{Message: "Too dark. Move to a brighter area."}
	case brightness > 0.9:
		return FrameQuality{Message: "Too bright. Reduce glare."}
	case blur > 0.5:
		return FrameQuality{Message: "Image is blurry. Hold steady."}
	}
	return FrameQuality{IsGoodQuality: true}
}

// PositionFeedback tells the user how to move the card toward the frame
// center and a usable size. Returns "" when the card is well placed.
func PositionFeedback(card Bounds, frameWidth, frameHeight float64) string {
	cardCenterX := card.X + card.Width/2
	cardCenterY := card.Y + card.Height/2
	frameCenterX := frameWidth / 2
	frameCenterY := frameHeight / 2

	if math.Abs(cardCenterX-frameCenterX) > positionTolerance {
		if cardCenterX < frameCenterX {
			return "Move card right"
		}
		return "Move card left"
	}
	if math.Abs(cardCenterY-frameCenterY) > positionTolerance {
		if cardCenterY < frameCenterY {
			return "Move card down"
		}
		return "Move card up"
	}

	if frameWidth <= 0 || frameHeight <= 0 {
		return ""
	}
	area := (card.Width * card.Height) / (frameWidth * frameHeight)
	if area < minCardArea {
		return "Move closer to the card"
	}
	if area > maxCardArea {
		return "Move away from the card"
	}
	return ""
}
