package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	reportBackground = "#060c1b"
	reportTextColor  = "#eceff4"
	reportEquity     = "#34d399"

	reportWidthPx  = 1200
	reportHeightPx = 480
)

// WriteReport 将资金曲线渲染为单页 HTML，返回文件路径。
func WriteReport(dir string, run Run, completed []CompletedTrade, initialBalance float64) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("report dir cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", reportWidthPx),
			Height:          fmt.Sprintf("%dpx", reportHeightPx),
			BackgroundColor: reportBackground,
			PageTitle:       fmt.Sprintf("Backtest %s", run.Symbol),
		}),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("%s equity curve", strings.ToUpper(run.Symbol)),
			Subtitle: fmt.Sprintf("trades=%d pnl=%.2f win_rate=%.1f%% max_dd=%.2f",
				run.Metrics.TotalTrades, run.Metrics.TotalPnl, run.Metrics.WinRate*100, run.Metrics.MaxDrawdown),
			Left:       "left",
			TitleStyle: &opts.TextStyle{Color: reportTextColor, FontSize: 18},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), TextStyle: &opts.TextStyle{Color: reportTextColor}}),
	)

	xs, equity := equitySeries(completed, initialBalance)
	line.SetXAxis(xs)
	line.AddSeries("Equity", equity,
		charts.WithLineStyleOpts(opts.LineStyle{Color: reportEquity, Width: 2}),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)

	name := fmt.Sprintf("%s_%s.html", strings.ToLower(run.Symbol), run.ID)
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := line.Render(f); err != nil {
		return "", err
	}
	return path, nil
}

// equitySeries 以初始资金为起点逐笔推进余额。
func equitySeries(completed []CompletedTrade, initialBalance float64) ([]string, []opts.LineData) {
	xs := make([]string, 0, len(completed)+1)
	data := make([]opts.LineData, 0, len(completed)+1)
	xs = append(xs, "start")
	data = append(data, opts.LineData{Value: initialBalance})
	balance := initialBalance
	for _, t := range completed {
		balance += t.Pnl
		xs = append(xs, time.UnixMilli(t.ExitTime).UTC().Format("01-02 15:04"))
		data = append(data, opts.LineData{Value: balance})
	}
	return xs, data
}
