package backtest

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"time"
)

// Curve is one line on a return chart.
type Curve struct {
	Label  string
	Color  string
	Values []float64
}

type ScatterPoint struct {
	Label string
	X     float64
	Y     float64
	Color string
}

type SVGChartOptions struct {
	Width  int
	Height int
}

func (o SVGChartOptions) withDefaults() SVGChartOptions {
	if o.Width <= 0 {
		o.Width = 980
	}
	if o.Height <= 0 {
		o.Height = 520
	}
	return o
}

var palette = []string{"#38bdf8", "#22c55e", "#f59e0b", "#ef4444", "#a78bfa", "#f472b6", "#14b8a6", "#eab308", "#94a3b8"}

const (
	chartBG   = "#0b1220"
	chartGrid = "rgba(255,255,255,0.08)"
	chartText = "rgba(255,255,255,0.85)"
	chartFont = "ui-monospace, Menlo, Monaco, Consolas, monospace"
)

type plotArea struct {
	mLeft, mRight, mTop, mBottom float64
	w, h                         float64
}

func newPlotArea(opt SVGChartOptions) (plotArea, error) {
	a := plotArea{mLeft: 70, mRight: 20, mTop: 24, mBottom: 40, w: float64(opt.Width), h: float64(opt.Height)}
	if a.plotW() <= 10 || a.plotH() <= 10 {
		return a, fmt.Errorf("invalid chart size")
	}
	return a, nil
}

func (a plotArea) plotW() float64 { return a.w - a.mLeft - a.mRight }
func (a plotArea) plotH() float64 { return a.h - a.mTop - a.mBottom }

func (a plotArea) yAt(v, minV, maxV float64) float64 {
	r := (v - minV) / (maxV - minV)
	r = math.Max(0, math.Min(1, r))
	return a.mTop + (1.0-r)*a.plotH()
}

func svgHeader(buf *bytes.Buffer, opt SVGChartOptions) {
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	buf.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="` + strconv.Itoa(opt.Width) + `" height="` + strconv.Itoa(opt.Height) + `" viewBox="0 0 ` + strconv.Itoa(opt.Width) + ` ` + strconv.Itoa(opt.Height) + `">` + "\n")
	buf.WriteString(`<rect x="0" y="0" width="100%" height="100%" fill="` + chartBG + `"/>` + "\n")
}

func svgText(buf *bytes.Buffer, x, y float64, color string, size int, s string) {
	buf.WriteString(`<text x="` + fmtFloat(x) + `" y="` + fmtFloat(y) + `" fill="` + color + `" font-size="` + strconv.Itoa(size) + `" font-family="` + chartFont + `">` +
		html.EscapeString(s) + `</text>` + "\n")
}

// valueRange pads [min,max] by 5% and widens a flat range.
func valueRange(minV, maxV float64) (float64, float64, error) {
	if math.IsInf(minV, 0) || math.IsInf(maxV, 0) {
		return 0, 0, fmt.Errorf("invalid value range")
	}
	if maxV <= minV {
		minV -= 0.01
		maxV += 0.01
	}
	pad := (maxV - minV) * 0.05
	return minV - pad, maxV + pad, nil
}

// RenderReturnCurveSVG draws cumulative-return curves sharing one date axis.
func RenderReturnCurveSVG(title string, dates []time.Time, curves []Curve, opt SVGChartOptions) ([]byte, error) {
	opt = opt.withDefaults()
	if len(dates) < 2 {
		return nil, fmt.Errorf("not enough points: %d", len(dates))
	}
	if len(curves) == 0 {
		return nil, fmt.Errorf("no curves")
	}

	minV := math.Inf(1)
	maxV := math.Inf(-1)
	for _, c := range curves {
		for _, v := range c.Values {
			if math.IsNaN(v) {
				continue
			}
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}
	}
	minV, maxV, err := valueRange(minV, maxV)
	if err != nil {
		return nil, err
	}

	a, err := newPlotArea(opt)
	if err != nil {
		return nil, err
	}
	step := a.plotW() / float64(len(dates)-1)
	xAt := func(i int) float64 {
		return a.mLeft + float64(i)*step
	}

	var buf bytes.Buffer
	svgHeader(&buf, opt)

	firstD := dates[0].Format(DateLayout)
	lastD := dates[len(dates)-1].Format(DateLayout)
	t := strings.TrimSpace(title)
	if t == "" {
		t = "Cumulative Return"
	}
	svgText(&buf, a.mLeft, 16, chartText, 14, t+"  "+firstD+" ~ "+lastD)

	for k := 0; k <= 5; k++ {
		y := a.mTop + (float64(k)/5.0)*a.plotH()
		buf.WriteString(`<line x1="` + fmtFloat(a.mLeft) + `" y1="` + fmtFloat(y) + `" x2="` + fmtFloat(a.mLeft+a.plotW()) + `" y2="` + fmtFloat(y) + `" stroke="` + chartGrid + `" stroke-width="1"/>` + "\n")
		v := maxV - (float64(k)/5.0)*(maxV-minV)
		svgText(&buf, 6, y+4, chartText, 12, fmtPct(v))
	}

	if minV < 0 && maxV > 0 {
		y := a.yAt(0, minV, maxV)
		buf.WriteString(`<line x1="` + fmtFloat(a.mLeft) + `" y1="` + fmtFloat(y) + `" x2="` + fmtFloat(a.mLeft+a.plotW()) + `" y2="` + fmtFloat(y) + `" stroke="rgba(255,255,255,0.35)" stroke-width="1" stroke-dasharray="6 6"/>` + "\n")
	}

	for ci, c := range curves {
		col := strings.TrimSpace(c.Color)
		if col == "" {
			col = palette[ci%len(palette)]
		}
		var pts []string
		for i, v := range c.Values {
			if i >= len(dates) || math.IsNaN(v) {
				continue
			}
			pts = append(pts, fmtFloat(xAt(i))+","+fmtFloat(a.yAt(v, minV, maxV)))
		}
		if len(pts) == 0 {
			continue
		}
		buf.WriteString(`<polyline points="` + strings.Join(pts, " ") + `" fill="none" stroke="` + col + `" stroke-width="1.6"/>` + "\n")
		// legend
		ly := a.mTop + 14 + float64(ci)*16
		buf.WriteString(`<rect x="` + fmtFloat(a.mLeft+10) + `" y="` + fmtFloat(ly-9) + `" width="10" height="10" fill="` + col + `"/>` + "\n")
		svgText(&buf, a.mLeft+26, ly, col, 12, c.Label)
	}

	svgText(&buf, a.mLeft, a.mTop+a.plotH()+a.mBottom-12, chartText, 12, firstD)
	svgText(&buf, a.mLeft+a.plotW()-70, a.mTop+a.plotH()+a.mBottom-12, chartText, 12, lastD)

	buf.WriteString(`</svg>` + "\n")
	return buf.Bytes(), nil
}

// RenderScatterSVG plots labelled points, e.g. Sharpe ratio against max drawdown.
// Points with a NaN coordinate are skipped.
func RenderScatterSVG(title, xLabel, yLabel string, points []ScatterPoint, opt SVGChartOptions) ([]byte, error) {
	opt = opt.withDefaults()

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	n := 0
	for _, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			continue
		}
		n++
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	if n == 0 {
		return nil, fmt.Errorf("no plottable points")
	}
	minX, maxX, err := valueRange(minX, maxX)
	if err != nil {
		return nil, err
	}
	minY, maxY, err = valueRange(minY, maxY)
	if err != nil {
		return nil, err
	}

	a, err := newPlotArea(opt)
	if err != nil {
		return nil, err
	}
	xAt := func(v float64) float64 {
		r := math.Max(0, math.Min(1, (v-minX)/(maxX-minX)))
		return a.mLeft + r*a.plotW()
	}

	var buf bytes.Buffer
	svgHeader(&buf, opt)
	svgText(&buf, a.mLeft, 16, chartText, 14, strings.TrimSpace(title))

	for k := 0; k <= 5; k++ {
		y := a.mTop + (float64(k)/5.0)*a.plotH()
		buf.WriteString(`<line x1="` + fmtFloat(a.mLeft) + `" y1="` + fmtFloat(y) + `" x2="` + fmtFloat(a.mLeft+a.plotW()) + `" y2="` + fmtFloat(y) + `" stroke="` + chartGrid + `" stroke-width="1"/>` + "\n")
		svgText(&buf, 6, y+4, chartText, 12, strconv.FormatFloat(maxY-(float64(k)/5.0)*(maxY-minY), 'f', 2, 64))
	}

	for i, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			continue
		}
		col := strings.TrimSpace(p.Color)
		if col == "" {
			col = palette[i%len(palette)]
		}
		x, y := xAt(p.X), a.yAt(p.Y, minY, maxY)
		buf.WriteString(`<circle cx="` + fmtFloat(x) + `" cy="` + fmtFloat(y) + `" r="4" fill="` + col + `" />` + "\n")
		if l := strings.TrimSpace(p.Label); l != "" {
			svgText(&buf, x+6, y-6, col, 11, l)
		}
	}

	bottom := a.mTop + a.plotH() + a.mBottom - 12
	svgText(&buf, a.mLeft, bottom, chartText, 12, strconv.FormatFloat(minX, 'f', 2, 64))
	svgText(&buf, a.mLeft+a.plotW()/2-40, bottom, chartText, 12, xLabel)
	svgText(&buf, a.mLeft+a.plotW()-60, bottom, chartText, 12, strconv.FormatFloat(maxX, 'f', 2, 64))
	svgText(&buf, a.mLeft+6, a.mTop+12, chartText, 12, yLabel)

	buf.WriteString(`</svg>` + "\n")
	return buf.Bytes(), nil
}

func fmtFloat(x float64) string {
	// stable compact formatting for SVG attributes
	return strconv.FormatFloat(x, 'f', 2, 64)
}

func fmtPct(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}
