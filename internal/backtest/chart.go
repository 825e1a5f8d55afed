package backtest

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"finch/internal/market"
	"finch/internal/strategy"
)

const (
	colorBull   = "#34d399"
	colorBear   = "#f87171"
	colorEquity = "#3b82f6"

	chartWidthPx  = 1400
	chartHeightPx = 500
)

// WriteChartFile 渲染回测结果为单页 HTML。
func WriteChartFile(path string, res Result, candles []market.Candle) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return RenderChart(f, res, candles)
}

// RenderChart 输出 K 线 + 资金曲线两张图。candles 是回测时喂入的同一段数据。
func RenderChart(w io.Writer, res Result, candles []market.Candle) error {
	if len(candles) == 0 {
		return fmt.Errorf("backtest: no candles to render")
	}
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)

	xAxis := buildXAxis(candles)

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  fmt.Sprintf("%dpx", chartWidthPx),
			Height: fmt.Sprintf("%dpx", chartHeightPx),
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s %s", strings.ToUpper(res.Symbol), res.Interval),
			Subtitle: fmt.Sprintf("%s | return %.2f%% | win rate %.1f%%", res.Strategy, res.Stats.ReturnPct, res.Stats.WinRate),
			Left:     "left",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	kline.SetSeriesOptions(
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        colorBull,
			Color0:       colorBear,
			BorderColor:  colorBull,
			BorderColor0: colorBear,
		}),
	)
	klineData := make([]opts.KlineData, 0, len(candles))
	for _, c := range candles {
		klineData = append(klineData, opts.KlineData{Value: [4]float64{c.Open, c.Close, c.Low, c.High}})
	}
	kline.SetXAxis(xAxis)
	kline.AddSeries("Price", klineData, charts.WithMarkPointNameCoordItemOpts(signalMarkPoints(res, candles)...))

	equity := charts.NewLine()
	equity.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  fmt.Sprintf("%dpx", chartWidthPx),
			Height: fmt.Sprintf("%dpx", chartHeightPx/2),
		}),
		charts.WithTitleOpts(opts.Title{Title: "Equity", Left: "left"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	eqData := make([]opts.LineData, 0, len(res.Equity))
	eqX := make([]string, 0, len(res.Equity))
	for _, p := range res.Equity {
		eqX = append(eqX, formatAxisTime(p.Timestamp))
		eqData = append(eqData, opts.LineData{Value: p.Equity})
	}
	equity.SetXAxis(eqX)
	equity.AddSeries("Equity", eqData,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorEquity, Width: 2}),
	)

	page.AddCharts(kline, equity)
	return page.Render(w)
}

// signalMarkPoints 把信号标在对应 K 线上。
func signalMarkPoints(res Result, candles []market.Candle) []opts.MarkPointNameCoordItem {
	index := make(map[int64]int, len(candles))
	for i, c := range candles {
		index[c.OpenTime] = i
	}
	out := make([]opts.MarkPointNameCoordItem, 0, len(res.Signals))
	for _, sig := range res.Signals {
		i, ok := index[sig.Timestamp]
		if !ok {
			continue
		}
		color := colorBull
		name := "B"
		if sig.Action != strategy.ActionBuy {
			color = colorBear
			name = "S"
		}
		out = append(out, opts.MarkPointNameCoordItem{
			Name:       name,
			Coordinate: []interface{}{formatAxisTime(sig.Timestamp), candles[i].High},
			ItemStyle:  &opts.ItemStyle{Color: color},
		})
	}
	return out
}

func buildXAxis(candles []market.Candle) []string {
	x := make([]string, len(candles))
	for i, c := range candles {
		x[i] = formatAxisTime(c.OpenTime)
	}
	return x
}

func formatAxisTime(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("01-02 15:04")
}
