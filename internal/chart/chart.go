// Package chart turns a price series into plot geometry for a selected
// time window. Everything here is a pure function of its arguments.
package chart

import (
	"errors"
	"math"

	"github.com/codyseavey/cardboard-compass/backend/internal/models"
)

// ErrEmptySeries is returned when there are no points to plot
var ErrEmptySeries = errors.New("price series is empty")

// Window is a trailing range of points to plot
type Window string

const (
	Window1D  Window = "1D"
	Window1W  Window = "1W"
	Window1M  Window = "1M"
	Window3M  Window = "3M"
	WindowYTD Window = "YTD"
	Window1Y  Window = "1Y"
)

// DefaultWindowPoints is used for unrecognized windows
const DefaultWindowPoints = 30

// AllWindows returns the selectable windows, shortest first
func AllWindows() []Window {
	return []Window{Window1D, Window1W, Window1M, Window3M, WindowYTD, Window1Y}
}

// Points returns how many trailing points the window keeps
func (w Window) Points() int {
	switch w {
	case Window1D:
		return 24
	case Window1W:
		return 7
	case Window1M:
		return 30
	case Window3M:
		return 90
	case WindowYTD:
		return 180
	case Window1Y:
		return 365
	default:
		return DefaultWindowPoints
	}
}

// Select keeps the last Points() entries of series in their original order
func Select(series []models.PricePoint, w Window) ([]models.PricePoint, error) {
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}
	n := w.Points()
	if len(series) <= n {
		return series, nil
	}
	return series[len(series)-n:], nil
}

// Coord is a point in plot space; Y grows downwards
type Coord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Labels are the price annotations for the y axis
type Labels struct {
	Min float64 `json:"min"`
	Mid float64 `json:"mid"`
	Max float64 `json:"max"`
}

// Plot is scaled geometry for a selection of points
type Plot struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Coords []Coord `json:"coords"`
	Labels Labels  `json:"labels"`
}

// Flat reports whether the plot has no price range to scale over
func (p Plot) Flat() bool {
	return p.Labels.Max == p.Labels.Min
}

// Y maps a price to its y coordinate
func (p Plot) Y(price float64) float64 {
	if p.Flat() {
		return p.Height / 2
	}
	return p.Height - (price-p.Labels.Min)/(p.Labels.Max-p.Labels.Min)*p.Height
}

// Scale maps points into a width x height area. The price range is padded by
// 10% of its span on both ends, with the lower bound floored at zero. A
// constant series, including a single point, is drawn flat at mid-height.
func Scale(points []models.PricePoint, width, height float64) Plot {
	plot := Plot{Width: width, Height: height}
	if len(points) == 0 {
		return plot
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		lo = math.Min(lo, p.Price)
		hi = math.Max(hi, p.Price)
	}
	padding := (hi - lo) * 0.1
	if padding > 0 {
		lo = math.Max(0, lo-padding)
		hi = hi + padding
	}
	plot.Labels = Labels{Min: lo, Mid: (lo + hi) / 2, Max: hi}

	plot.Coords = make([]Coord, len(points))
	for i, p := range points {
		x := width / 2
		if len(points) > 1 {
			x = float64(i) / float64(len(points)-1) * width
		}
		plot.Coords[i] = Coord{X: x, Y: plot.Y(p.Price)}
	}
	return plot
}

// Direction is the overall movement of a series
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Trend compares the first and last price; ties count as up
func Trend(points []models.PricePoint) Direction {
	if len(points) == 0 {
		return Up
	}
	if points[len(points)-1].Price >= points[0].Price {
		return Up
	}
	return Down
}

// Stroke returns the line colour for the direction
func (d Direction) Stroke() string {
	if d == Down {
		return "#FF3B30"
	}
	return "#34C759"
}

// Fill returns the colour of the area under the line; it is drawn at 10% opacity
func (d Direction) Fill() string {
	return d.Stroke()
}

// Icon names the growth/decline icon shown next to the chart
func (d Direction) Icon() string {
	if d == Down {
		return "trending-down"
	}
	return "trending-up"
}
