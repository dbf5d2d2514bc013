// Package report 输出求解结果：文本、表格、JSON 和温度分布图
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"gonum.org/v1/gonum/floats"

	"rodfem/calculator"
)

// Print 按 cfg.Format 输出
func Print(w io.Writer, cfg calculator.Config, res *calculator.Result) error {
	switch cfg.Format {
	case calculator.FormatTable:
		return printTable(w, cfg, res)
	case calculator.FormatJSON:
		return printJSON(w, cfg, res)
	default:
		return printText(w, cfg, res)
	}
}

// PrintConfig 与原程序一致的配置回显
func PrintConfig(w io.Writer, cfg calculator.Config) error {
	_, err := fmt.Fprintf(w, "Configuration:\n"+
		"ELEMENT_COUNT: %d\n"+
		"ENVIRONMENT_TEMPERATURE: %g\n"+
		"HEAT_SOURCE_DENSITY: %g\n"+
		"CONVECTION_COEFFICIENT: %g\n"+
		"HEAT_TRANSFER_COEFFICIENT: %g\n"+
		"CROSSECTION_AREA: %g\n"+
		"ROD_LENGTH: %g\n"+
		"BOUNDARIES: %s / %s\n"+
		"SOLVER: %s\n\n",
		cfg.ElementCount, cfg.EnvTemperature, cfg.HeatSourceDensity, cfg.ConvectionCoefficient,
		cfg.K, cfg.Area, cfg.Length, cfg.LeftType, cfg.RightType, cfg.Method)
	return err
}

func printText(w io.Writer, cfg calculator.Config, res *calculator.Result) error {
	if err := PrintConfig(w, cfg); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Solution for %d elements:\n", res.ElementCount); err != nil {
		return err
	}
	width := cfg.Precision + 4
	for _, t := range res.Temperatures {
		if _, err := fmt.Fprintf(w, "%*.*f\n", width, cfg.Precision, t); err != nil {
			return err
		}
	}
	return nil
}

func printTable(w io.Writer, cfg calculator.Config, res *calculator.Result) error {
	if err := PrintConfig(w, cfg); err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("Solution for %d elements", res.ElementCount))
	t.AppendHeader(table.Row{"Node", "X", "Temperature"})
	for i, temp := range res.Temperatures {
		t.AppendRow(table.Row{i, format(res.Positions[i], cfg.Precision), format(temp, cfg.Precision)})
	}
	if res.Finite && len(res.Temperatures) > 0 {
		t.AppendFooter(table.Row{"", "min / max",
			format(floats.Min(res.Temperatures), cfg.Precision) + " / " + format(floats.Max(res.Temperatures), cfg.Precision)})
	}
	t.Render()
	return nil
}

func printJSON(w io.Writer, cfg calculator.Config, res *calculator.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res.BuildData(cfg))
}

func format(v float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, v)
}
