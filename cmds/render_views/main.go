package main

import (
	"os"
	"strings"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/shape-views/internal/cmdutil"
	"github.com/unixpickle/shape-views/views"
	"github.com/urfave/cli/v2"
)

func main() {
	flags := append(cmdutil.RenderFlags(),
		&cli.StringFlag{
			Name:  "obj-path",
			Usage: "render a single mesh instead of a dataset category",
		},
		&cli.StringFlag{
			Name:  "data-root",
			Value: "ShapeNetCore.v2",
			Usage: "root of the dataset, containing one directory per synset",
		},
		&cli.StringFlag{
			Name:  "category",
			Value: "Chair",
			Usage: "dataset category: " + strings.Join(views.CategoryNames(), ", "),
		},
		&cli.IntFlag{
			Name:  "max-meshes",
			Usage: "stop after this many meshes (0 for all)",
		},
	)
	app := &cli.App{
		Name:   "render_views",
		Usage:  "Render orbits of meshes with auxiliary channels",
		Flags:  flags,
		Action: renderViews,
	}
	essentials.Must(app.Run(os.Args))
}

func renderViews(c *cli.Context) error {
	logger := cmdutil.NewLogger(c, "render_views")
	settings, err := cmdutil.Settings(c)
	if err != nil {
		return err
	}

	var meshPaths []string
	dataset := c.String("obj-path") == ""
	if dataset {
		meshPaths, err = views.DatasetMeshes(c.String("data-root"), c.String("category"))
		if err != nil {
			return err
		}
		logger.Info("found meshes", "category", c.String("category"), "count", len(meshPaths))
	} else {
		meshPaths = []string{c.String("obj-path")}
	}
	if len(meshPaths) == 0 {
		logger.Warn("nothing to render", "data-root", c.String("data-root"))
		return nil
	}

	orchestrator, err := views.NewOrchestrator(settings, logger)
	if err != nil {
		return err
	}
	manifest, err := orchestrator.Run(meshPaths, c.String("output-folder"), dataset)
	if err != nil {
		return err
	}
	logger.Info("done", "run", manifest.RunID, "meshes", len(manifest.Models),
		"elapsed", manifest.Finished.Sub(manifest.Started))
	return nil
}
