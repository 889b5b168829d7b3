package exporter

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"domain_status_checker/internal/model"
)

const sheetName = "result"

// ExportXLSX 将汇总报告另存为 xlsx，状态码列写为数字
func ExportXLSX(rows [][]string, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return err
	}

	header := make([]interface{}, len(model.ReportHeader))
	for i, h := range model.ReportHeader {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
			if j == 3 {
				if code, err := strconv.Atoi(v); err == nil {
					cells[j] = code
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("保存xlsx失败: %w", err)
	}
	return nil
}
