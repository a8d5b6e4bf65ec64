package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strconv"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const (
	axisColor  = "#C7C7CC"
	labelColor = "#8E8E93"
)

// SVG draws the chart: y-axis ticks with price labels, the filled area under
// the line, and the line itself, coloured by trend.
func (c *Chart) SVG() []byte {
	return c.svg(true)
}

func (c *Chart) svg(labels bool) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		c.Frame.Width, c.Frame.Height, c.Frame.Width, c.Frame.Height)

	for _, price := range []float64{c.Plot.Labels.Min, c.Plot.Labels.Mid, c.Plot.Labels.Max} {
		y := originY + c.Plot.Y(price)
		fmt.Fprintf(&b, `<line x1="%s" y1="%s" x2="%d" y2="%s" stroke="%s" stroke-width="1"/>`,
			num(originX-5), num(y), originX, num(y), axisColor)
		if !labels {
			continue
		}
		fmt.Fprintf(&b, `<text x="5" y="%s" fill="%s" font-size="10" text-anchor="start">$%.0f</text>`,
			num(y+4), labelColor, price)
	}

	line := c.linePath()
	if line != "" {
		fmt.Fprintf(&b, `<path d="%s" fill="%s" fill-opacity="0.1"/>`, c.areaPath(line), c.Fill)
		fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`, line, c.Stroke)
	}

	b.WriteString(`</svg>`)
	return b.Bytes()
}

func (c *Chart) linePath() string {
	var parts []string
	for i, p := range c.Plot.Coords {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", cmd, num(originX+p.X), num(originY+p.Y)))
	}
	return strings.Join(parts, " ")
}

// areaPath closes the line down to the bottom of the plot area
func (c *Chart) areaPath(line string) string {
	coords := c.Plot.Coords
	bottom := num(originY + c.Plot.Height)
	return fmt.Sprintf("%s L %s %s L %s %s Z", line,
		num(originX+coords[len(coords)-1].X), bottom,
		num(originX+coords[0].X), bottom)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// RasterizeSVG renders SVG data to a width x height PNG. Text elements are
// not supported by the rasterizer.
func RasterizeSVG(svgData []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", width, height)
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, err
	}
	icon.SetTarget(0, 0, float64(width), float64(height))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)
	icon.Draw(raster, 1.0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PNG renders the chart at its frame size, without price labels
func (c *Chart) PNG() ([]byte, error) {
	return RasterizeSVG(c.svg(false), c.Frame.Width, c.Frame.Height)
}
