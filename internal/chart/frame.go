package chart

import (
	"github.com/codyseavey/cardboard-compass/backend/internal/models"
)

const (
	originX = 30 // room for y-axis labels
	originY = 10
	margin  = 40 // total horizontal and vertical margin
)

// Frame is the full drawing surface; the plot area sits inside its margins
type Frame struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultFrame matches the market screen chart
var DefaultFrame = Frame{Width: 350, Height: 220}

// PlotArea returns the size left for the plot once margins are removed
func (f Frame) PlotArea() (float64, float64) {
	w := float64(f.Width - margin)
	h := float64(f.Height - margin)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// Chart is everything a client needs to draw a price chart
type Chart struct {
	Window Window              `json:"window"`
	Frame  Frame               `json:"frame"`
	Points []models.PricePoint `json:"points"`
	Plot   Plot                `json:"plot"`
	Trend  Direction           `json:"trend"`
	Stroke string              `json:"stroke"`
	Fill   string              `json:"fill"`
	Icon   string              `json:"icon"`
}

// Build selects, scales, and classifies a series for the frame
func Build(series []models.PricePoint, w Window, frame Frame) (*Chart, error) {
	points, err := Select(series, w)
	if err != nil {
		return nil, err
	}

	width, height := frame.PlotArea()
	trend := Trend(points)

	return &Chart{
		Window: w,
		Frame:  frame,
		Points: points,
		Plot:   Scale(points, width, height),
		Trend:  trend,
		Stroke: trend.Stroke(),
		Fill:   trend.Fill(),
		Icon:   trend.Icon(),
	}, nil
}
