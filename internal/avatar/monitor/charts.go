package monitor

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/banshee-data/posetrack/internal/httputil"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// handleCharts renders reliability and root-motion charts over the
// recent history.
// Query params:
//   - n (optional; default all) number of most recent frames
func (ws *WebServer) handleCharts(w http.ResponseWriter, r *http.Request) {
	n, err := httputil.QueryInt(r, "n", ws.history.Cap(), 1, ws.history.Cap())
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	samples := ws.history.Last(n)
	if len(samples) == 0 {
		httputil.NotFound(w, "no frames processed yet")
		return
	}

	x := make([]string, len(samples))
	score := make([]opts.LineData, len(samples))
	locked := make([]opts.LineData, len(samples))
	rootY := make([]opts.LineData, len(samples))
	depth := make([]opts.LineData, len(samples))
	foot := make([]opts.LineData, len(samples))
	for i, s := range samples {
		x[i] = strconv.FormatUint(s.Seq, 10)
		score[i] = opts.LineData{Value: s.EstimatedScore}
		locked[i] = opts.LineData{Value: len(s.Locked)}
		rootY[i] = opts.LineData{Value: s.Root[1]}
		depth[i] = opts.LineData{Value: s.Depth}
		foot[i] = opts.LineData{Value: s.FootLift - s.FootDrop}
	}
	subtitle := fmt.Sprintf("frames %d-%d", samples[0].Seq, samples[len(samples)-1].Seq)

	reliability := charts.NewLine()
	reliability.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Reliability", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	reliability.SetXAxis(x).
		AddSeries("estimated score", score).
		AddSeries("locked joints", locked)

	motion := charts.NewLine()
	motion.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Root motion", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "m"}),
	)
	motion.SetXAxis(x).
		AddSeries("root height", rootY).
		AddSeries("depth", depth).
		AddSeries("foot IK correction", foot)

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsHost)
	page.AddCharts(reliability, motion)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
