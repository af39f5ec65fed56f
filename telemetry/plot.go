package telemetry

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ReadGenerations loads the records of a generations.csv file.
func ReadGenerations(path string) ([]GenerationStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []GenerationStats
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return records, nil
}

// PlotGenerations draws best and mean fitness against generation and saves
// the chart to outPath. The image format follows the file extension.
func PlotGenerations(records []GenerationStats, title, outPath string) error {
	if len(records) == 0 {
		return fmt.Errorf("plotting %s: no generations", outPath)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness (SSE)"

	bestPts := make(plotter.XYs, len(records))
	meanPts := make(plotter.XYs, len(records))
	for i, r := range records {
		bestPts[i].X = float64(r.Generation)
		bestPts[i].Y = r.Best
		meanPts[i].X = float64(r.Generation)
		meanPts[i].Y = r.Mean
	}

	bestLine, err := plotter.NewLine(bestPts)
	if err != nil {
		return err
	}
	meanLine, err := plotter.NewLine(meanPts)
	if err != nil {
		return err
	}
	meanLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(plotter.NewGrid(), bestLine, meanLine)
	p.Legend.Add("best", bestLine)
	p.Legend.Add("mean", meanLine)
	p.Legend.Top = true

	if err := p.Save(6*vg.Inch, 4*vg.Inch, outPath); err != nil {
		return fmt.Errorf("saving %s: %w", outPath, err)
	}
	return nil
}

// BestSeries extracts the best-fitness column.
func BestSeries(records []GenerationStats) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Best
	}
	return out
}
