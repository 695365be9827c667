package main

import (
	"os"
	"path/filepath"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/shape-views/captions"
	"github.com/unixpickle/shape-views/figures"
	"github.com/unixpickle/shape-views/internal/cmdutil"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "plot_wordcloud",
		Usage: "Draw a word cloud of the descriptions of one category",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "csv-path",
				Required: true,
				Usage:    "caption table with modelId, category and description columns",
			},
			&cli.StringFlag{
				Name:  "category",
				Value: captions.AllCategories,
				Usage: "category to include, e.g. Chair or Table, or \"all\"",
			},
			&cli.StringFlag{
				Name:  "output-folder",
				Value: ".",
				Usage: "directory for the word cloud image",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "random seed for word placement",
			},
			&cli.IntFlag{
				Name:  "chart",
				Usage: "also plot the counts of this many top words (0 disables)",
			},
			cmdutil.VerboseFlag,
		},
		Action: plotWordCloud,
	}
	essentials.Must(app.Run(os.Args))
}

func plotWordCloud(c *cli.Context) error {
	logger := cmdutil.NewLogger(c, "plot_wordcloud")
	category := c.String("category")

	records, err := captions.Load(c.String("csv-path"))
	if err != nil {
		return err
	}
	text := captions.BuildText(records, category)
	if text == "" {
		logger.Warn("no descriptions for category", "category", category)
	}

	opts := figures.DefaultWordCloudOptions()
	opts.Seed = c.Int64("seed")
	freqs := figures.WordFrequencies(text, opts.Stopwords, opts.MaxWords)
	cloud, err := figures.LayoutWordCloud(freqs, opts)
	if err != nil {
		return err
	}
	if len(cloud.Words) < len(freqs) {
		logger.Debug("some words did not fit", "placed", len(cloud.Words), "words", len(freqs))
	}

	outDir := c.String("output-folder")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	outPath := filepath.Join(outDir, figures.WordCloudFileName(category))
	if err := cloud.Save(outPath); err != nil {
		return err
	}
	logger.Info("saved word cloud", "path", outPath, "words", len(cloud.Words))

	if n := c.Int("chart"); n > 0 && len(freqs) > 0 {
		chartPath := filepath.Join(outDir, figures.FrequencyChartFileName(category))
		if err := figures.SaveFrequencyChart(freqs, n, category, chartPath); err != nil {
			return err
		}
		logger.Info("saved frequency chart", "path", chartPath)
	}
	return nil
}
