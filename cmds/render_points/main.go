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
			Value: 0.01,
			Usage: "radius of the sphere drawn at each point",
		},
		&cli.IntFlag{
			Name:  "subdivisions",
			Value: 1,
			Usage: "icosphere subdivisions per point",
		},
		&cli.StringFlag{
			Name:  "material",
			Value: "default",
			Usage: "material preset: default, glass, gold, rough-blue",
		},
		&cli.BoolFlag{
			Name:  "floor",
			Usage: "add a ground plane under the points",
		},
	)
	app := &cli.App{
		Name:      "render_points",
		Usage:     "Render orbits of a point cloud drawn as small spheres",
		ArgsUsage: "<points.ply|points.xyz>",
		Flags:     flags,
		Action:    renderPoints,
	}
	essentials.Must(app.Run(os.Args))
}

func renderPoints(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one point cloud path")
	}
	inputPath := c.Args().First()
	logger := cmdutil.NewLogger(c, "render_points")
	settings, err := cmdutil.Settings(c)
	if err != nil {
		return err
	}
	material, err := views.MaterialPreset(c.String("material"))
	if err != nil {
		return err
	}

	logger.Info("loading points", "path", inputPath)
	points, err := views.LoadPointCloud(inputPath)
	if err != nil {
		return err
	}
	rows, cols := points.Dims()
	logger.Info("building spheres", "points", rows, "colored", cols >= 6)
	spheres, err := views.PointCloudToSpheres(points, c.Float64("radius"), model3d.Origin,
		settings.Scale, c.Int("subdivisions"))
	if err != nil {
		return err
	}

	job, err := views.NewSingleJob(inputPath, c.String("output-folder"), settings.Views)
	if err != nil {
		return err
	}
	orchestrator, err := views.NewOrchestrator(settings, logger)
	if err != nil {
		return err
	}
	obj := spheres.Object(job.ModelID, material)
	if c.Bool("floor") {
		addFloor(orchestrator.Scene, obj.Mesh)
	}
	obj.PassIndex = 1
	_, err = orchestrator.RenderObject(job, obj)
	return err
}

// addFloor places a large plane just below the mesh.
func addFloor(scene *views.Scene, mesh *model3d.Mesh) {
	z := 0.0
	if mesh.NumTriangles() > 0 {
		z = mesh.Min().Z
	}
	floor := views.NewPlane("Floor", model3d.Z(z-0.01), model3d.Coord3D{}, 10)
	scene.AddObject(floor)
}
