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
		Name:  "plot_renderings",
		Usage: "Plot the rendered views of a model next to its text descriptions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "csv-path",
				Required: true,
				Usage:    "caption table with modelId, category and description columns",
			},
			&cli.StringFlag{
				Name:     "obj-path",
				Required: true,
				Usage:    "mesh whose model identifier selects the captions",
			},
			&cli.StringFlag{
				Name:     "renders-folder",
				Required: true,
				Usage:    "directory holding one folder of rendered views per model",
			},
			&cli.StringFlag{
				Name:  "output-folder",
				Value: ".",
				Usage: "directory for " + figures.GridFileName,
			},
			&cli.IntFlag{
				Name:  "cell-size",
				Value: 300,
				Usage: "side length of each grid cell in pixels",
			},
			cmdutil.VerboseFlag,
		},
		Action: plotRenderings,
	}
	essentials.Must(app.Run(os.Args))
}

func plotRenderings(c *cli.Context) error {
	logger := cmdutil.NewLogger(c, "plot_renderings")

	records, err := captions.Load(c.String("csv-path"))
	if err != nil {
		return err
	}
	modelID := figures.ModelIDFromPath(c.String("obj-path"))
	descriptions := captions.FindDescriptions(records, modelID)
	if len(descriptions) == 0 {
		logger.Warn("no captions for model", "model", modelID)
	}

	imagePaths, err := figures.ModelRenders(c.String("renders-folder"), modelID)
	if err != nil {
		return err
	}
	if len(imagePaths) == 0 {
		logger.Warn("no rendered images", "folder", c.String("renders-folder"), "model", modelID)
	}
	logger.Debug("building grid", "model", modelID, "captions", len(descriptions),
		"images", len(imagePaths))

	fig, err := figures.LoadGridFigure(descriptions, imagePaths, c.Int("cell-size"))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.String("output-folder"), 0755); err != nil {
		return err
	}
	outPath := filepath.Join(c.String("output-folder"), figures.GridFileName)
	if err := fig.Save(outPath); err != nil {
		return err
	}
	logger.Info("saved grid", "path", outPath, "rows", fig.Layout.Rows, "cols", fig.Layout.Cols)
	return nil
}
