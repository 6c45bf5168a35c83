package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"rainharvest-advisor/internal/results"
)

// ExportWorkbook renders the results view as an XLSX workbook: a summary
// sheet, the rainfall table and the recommended-system cost breakdown. An
// offline alternative to the PDF pipeline.
func ExportWorkbook(v *results.View) ([]byte, error) {
	f := excelize.NewFile()

	const summary = "Assessment"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, err
	}

	openSpace := "Not Available"
	if v.OpenSpaceAvailable {
		openSpace = fmt.Sprintf("%.4f m²", v.OpenArea)
	}
	feasible := "Yes"
	if !v.Feasible {
		feasible = "No"
	}

	rows := [][]interface{}{
		{"User", v.Username},
		{"District", v.District},
		{"Station", v.Subdistrict},
		{"Roof Type", v.RoofType},
		{"Roof Area (m²)", v.RoofArea},
		{"Runoff Coefficient", v.RunoffCoeff},
		{"Open Space", openSpace},
		{"Max Rainfall (mm)", v.MaxRainMM},
		{"Max Year", v.MaxYear},
		{"Harvestable Water (L)", v.HarvestedLiters},
		{"Feasible For Recharge", feasible},
		{"Recommended System", v.RecommendationType},
		{"Recommended Cost (₹)", v.RecommendedTotal},
	}
	for i, row := range rows {
		if err := setCell(f, summary, 1, i+1, row[0]); err != nil {
			return nil, err
		}
		if err := setCell(f, summary, 2, i+1, row[1]); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(summary, "A1", fmt.Sprintf("A%d", len(rows)), header); err != nil {
		return nil, err
	}

	const rainfall = "Rainfall"
	if _, err := f.NewSheet(rainfall); err != nil {
		return nil, err
	}
	if err := setCell(f, rainfall, 1, 1, "Year"); err != nil {
		return nil, err
	}
	if err := setCell(f, rainfall, 2, 1, "Rain (mm)"); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(rainfall, "A1", "B1", header); err != nil {
		return nil, err
	}
	for i, row := range v.Rainfall {
		year := row.Year
		if row.IsMax {
			year += " (max)"
		}
		if err := setCell(f, rainfall, 1, i+2, year); err != nil {
			return nil, err
		}
		if err := setCell(f, rainfall, 2, i+2, row.RainMM); err != nil {
			return nil, err
		}
	}

	if len(v.CostSummary) > 0 {
		const costs = "Costs"
		if _, err := f.NewSheet(costs); err != nil {
			return nil, err
		}
		if err := setCell(f, costs, 1, 1, "Component"); err != nil {
			return nil, err
		}
		if err := setCell(f, costs, 2, 1, "Amount (₹)"); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(costs, "A1", "B1", header); err != nil {
			return nil, err
		}
		row := 2
		for _, component := range v.CostSummary.Components() {
			if err := setCell(f, costs, 1, row, component); err != nil {
				return nil, err
			}
			if err := setCell(f, costs, 2, row, v.CostSummary[component]); err != nil {
				return nil, err
			}
			row++
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}
