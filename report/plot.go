package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"rodfem/calculator"
)

// SavePlot 保存温度沿杆长的分布图，格式由文件扩展名决定
func SavePlot(res *calculator.Result, path string) error {
	if !res.Finite {
		return fmt.Errorf("plot %s: solution contains non-finite temperatures", path)
	}

	pts := make(plotter.XYs, len(res.Temperatures))
	for i, t := range res.Temperatures {
		pts[i].X = res.Positions[i]
		pts[i].Y = t
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Steady-state temperature, %d elements", res.ElementCount)
	p.X.Label.Text = "x"
	p.Y.Label.Text = "T"
	p.Add(plotter.NewGrid())

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return fmt.Errorf("plot %s: %w", path, err)
	}
	p.Add(line, points)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("plot %s: %w", path, err)
	}
	return nil
}
