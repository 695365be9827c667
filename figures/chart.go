package figures

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
)

// FrequencyChartFileName is the name of the frequency chart for a
// category.
func FrequencyChartFileName(category string) string {
	return "wordfreq_" + category + ".png"
}

// SaveFrequencyChart plots the counts of the first n words as a bar chart.
// The image format follows the extension of path.
func SaveFrequencyChart(freqs []WordFrequency, n int, title, path string) error {
	if n > 0 && len(freqs) > n {
		freqs = freqs[:n]
	}
	if len(freqs) == 0 {
		return errors.New("save frequency chart: no words")
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Count"

	values := make(plotter.Values, len(freqs))
	names := make([]string, len(freqs))
	for i, f := range freqs {
		values[i] = float64(f.Count)
		names[i] = f.Word
	}
	bars, err := plotter.NewBarChart(values, vg.Points(10))
	if err != nil {
		return errors.Wrap(err, "save frequency chart")
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "save frequency chart")
	}
	return nil
}
