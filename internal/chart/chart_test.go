package chart

import (
	"errors"
	"testing"
	"time"

	"github.com/codyseavey/cardboard-compass/backend/internal/models"
)

func series(prices ...float64) []models.PricePoint {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Price: p}
	}
	return points
}

func TestWindowPoints(t *testing.T) {
	tests := []struct {
		window   Window
		expected int
	}{
		{Window1D, 24},
		{Window1W, 7},
		{Window1M, 30},
		{Window3M, 90},
		{WindowYTD, 180},
		{Window1Y, 365},
		{Window("5Y"), 30}, // unknown falls back to default
		{Window(""), 30},
	}

	for _, tt := range tests {
		t.Run(string(tt.window), func(t *testing.T) {
			if got := tt.window.Points(); got != tt.expected {
				t.Errorf("%q.Points() = %d, want %d", tt.window, got, tt.expected)
			}
		})
	}
}

func TestSelectKeepsLastPointsInOrder(t *testing.T) {
	input := series(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)

	got, err := Select(input, Window1W)
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if len(got) != 7 {
		t.Fatalf("Select(10 points, 1W) returned %d points, want 7", len(got))
	}
	for i, p := range got {
		if want := float64(i + 4); p.Price != want {
			t.Errorf("point %d price = %f, want %f", i, p.Price, want)
		}
	}
}

func TestSelectNeverExceedsCapOrInput(t *testing.T) {
	for _, w := range append(AllWindows(), Window("bogus")) {
		for _, n := range []int{1, 5, 24, 100, 400} {
			prices := make([]float64, n)
			got, err := Select(series(prices...), w)
			if err != nil {
				t.Fatalf("Select(%d, %s) error: %v", n, w, err)
			}
			if len(got) > w.Points() || len(got) > n {
				t.Errorf("Select(%d points, %s) returned %d points", n, w, len(got))
			}
		}
	}
}

func TestSelectEmptySeries(t *testing.T) {
	_, err := Select(nil, Window1M)
	if !errors.Is(err, ErrEmptySeries) {
		t.Errorf("Select(nil) error = %v, want ErrEmptySeries", err)
	}
}

func TestScalePadsRange(t *testing.T) {
	plot := Scale(series(100, 200), 100, 100)

	// span 100 -> 10 padding each side
	if plot.Labels.Min != 90 || plot.Labels.Max != 210 || plot.Labels.Mid != 150 {
		t.Errorf("labels = %+v, want min 90 mid 150 max 210", plot.Labels)
	}
	if plot.Coords[0].X != 0 || plot.Coords[1].X != 100 {
		t.Errorf("x coords = %v, want 0 and 100", plot.Coords)
	}
	// 100 is 10/120 of the way up from 90
	wantY0 := 100 - (10.0/120.0)*100
	if diff := plot.Coords[0].Y - wantY0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("y for 100 = %f, want %f", plot.Coords[0].Y, wantY0)
	}
}

func TestScaleFloorsLowerBoundAtZero(t *testing.T) {
	plot := Scale(series(1, 101), 50, 50)

	if plot.Labels.Min != 0 {
		t.Errorf("padded minimum = %f, want 0", plot.Labels.Min)
	}
	if plot.Labels.Max != 111 {
		t.Errorf("padded maximum = %f, want 111", plot.Labels.Max)
	}
}

func TestScaleHigherPriceIsHigherOnScreen(t *testing.T) {
	plot := Scale(series(5, 10, 20, 40, 80), 300, 200)

	for i := 1; i < len(plot.Coords); i++ {
		if plot.Coords[i].Y > plot.Coords[i-1].Y {
			t.Errorf("y[%d] = %f > y[%d] = %f for a rising price", i, plot.Coords[i].Y, i-1, plot.Coords[i-1].Y)
		}
	}
	for _, c := range plot.Coords {
		if c.Y < 0 || c.Y > 200 {
			t.Errorf("y = %f outside plot height", c.Y)
		}
	}
}

func TestScaleFlatSeries(t *testing.T) {
	tests := []struct {
		name   string
		points []models.PricePoint
	}{
		{"single point", series(50)},
		{"constant price", series(42, 42, 42, 42)},
		{"all zero", series(0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plot := Scale(tt.points, 200, 120)
			if len(plot.Coords) != len(tt.points) {
				t.Fatalf("got %d coords, want %d", len(plot.Coords), len(tt.points))
			}
			for i, c := range plot.Coords {
				if c.Y != 60 {
					t.Errorf("coord %d y = %f, want 60 (mid-height)", i, c.Y)
				}
			}
			if !plot.Flat() {
				t.Error("plot should be flat")
			}
		})
	}

	single := Scale(series(50), 200, 120)
	if single.Coords[0].X != 100 {
		t.Errorf("single point x = %f, want 100 (centered)", single.Coords[0].X)
	}
	if single.Labels.Min != 50 || single.Labels.Max != 50 {
		t.Errorf("single point labels = %+v, want 50/50", single.Labels)
	}
}

func TestScaleEmpty(t *testing.T) {
	plot := Scale(nil, 100, 100)
	if len(plot.Coords) != 0 {
		t.Errorf("Scale(nil) returned %d coords", len(plot.Coords))
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name     string
		prices   []float64
		expected Direction
	}{
		{"falling", []float64{100, 90, 80}, Down},
		{"rising", []float64{80, 90, 100}, Up},
		{"single point ties up", []float64{50}, Up},
		{"dip and recover to same", []float64{10, 5, 10}, Up},
		{"spike then lower", []float64{10, 50, 9}, Down},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Trend(series(tt.prices...)); got != tt.expected {
				t.Errorf("Trend(%v) = %s, want %s", tt.prices, got, tt.expected)
			}
		})
	}
}

func TestDirectionStyle(t *testing.T) {
	if Up.Stroke() != "#34C759" || Up.Icon() != "trending-up" {
		t.Errorf("up style = %s/%s", Up.Stroke(), Up.Icon())
	}
	if Down.Stroke() != "#FF3B30" || Down.Icon() != "trending-down" {
		t.Errorf("down style = %s/%s", Down.Stroke(), Down.Icon())
	}
}

func TestBuild(t *testing.T) {
	frame := Frame{Width: 240, Height: 140}
	c, err := Build(series(3, 2, 1, 4, 5, 6, 7, 8, 1), Window1W, frame)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	if len(c.Points) != 7 {
		t.Errorf("Build kept %d points, want 7", len(c.Points))
	}
	if c.Plot.Width != 200 || c.Plot.Height != 100 {
		t.Errorf("plot area = %fx%f, want 200x100", c.Plot.Width, c.Plot.Height)
	}
	// first kept point is 1, last is 1: tie resolves up
	if c.Trend != Up || c.Stroke != Up.Stroke() {
		t.Errorf("trend = %s stroke = %s, want up", c.Trend, c.Stroke)
	}

	if _, err := Build(nil, Window1W, frame); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("Build(nil) error = %v, want ErrEmptySeries", err)
	}
}
