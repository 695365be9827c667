package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/shape-views/internal/cmdutil"
	"github.com/unixpickle/shape-views/views"
	"github.com/urfave/cli/v2"
)

func main() {
	flags := append(cmdutil.RenderFlags(),
		&cli.Float64Flag{
			Name:  "radius",
			Usage: "half side length of each cube (0 fills each cell)",
		},
		&cli.StringFlag{
			Name:  "material",
			Value: "rough-blue",
			Usage: "material preset: default, glass, gold, rough-blue",
		},
		&cli.Float64Flag{
			Name:  "light-energy",
			Value: 30,
			Usage: "power of the disk light above the voxels (0 disables it)",
		},
	)
	app := &cli.App{
		Name:      "render_voxels",
		Usage:     "Render orbits of a voxel grid drawn as cubes",
		ArgsUsage: "<model.binvox>",
		Flags:     flags,
		Action:    renderVoxels,
	}
	essentials.Must(app.Run(os.Args))
}

func renderVoxels(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one binvox path")
	}
	inputPath := c.Args().First()
	logger := cmdutil.NewLogger(c, "render_voxels")
	settings, err := cmdutil.Settings(c)
	if err != nil {
		return err
	}
	material, err := views.MaterialPreset(c.String("material"))
	if err != nil {
		return err
	}

	logger.Info("loading voxels", "path", inputPath)
	vox, err := views.LoadBinvox(inputPath)
	if err != nil {
		return err
	}
	grid := vox.Grid
	radius := c.Float64("radius")
	if radius <= 0 {
		maxDim := max(grid.Nx, grid.Ny, grid.Nz)
		radius = 0.5 * settings.Scale / float64(maxDim)
	}
	cubes := views.VoxelsToCubes(grid, radius, model3d.Origin, settings.Scale)
	logger.Info("built cubes", "filled", len(cubes.Primitives),
		"dims", []int{grid.Nx, grid.Ny, grid.Nz})
	if len(cubes.Primitives) == 0 {
		logger.Warn("voxel grid is empty", "path", inputPath)
	}

	job, err := views.NewSingleJob(inputPath, c.String("output-folder"), settings.Views)
	if err != nil {
		return err
	}
	orchestrator, err := views.NewOrchestrator(settings, logger)
	if err != nil {
		return err
	}
	if energy := c.Float64("light-energy"); energy > 0 {
		light := views.NewDiskAreaLight("Area", model3d.XYZ(0, 0, 2), model3d.Coord3D{}, energy)
		orchestrator.Scene.AddLight(light)
	}
	obj := cubes.Object(job.ModelID, material)
	obj.PassIndex = 1
	_, err = orchestrator.RenderObject(job, obj)
	return err
}
