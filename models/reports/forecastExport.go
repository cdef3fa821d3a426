package reports

import (
	"fmt"

	"bitbucket.org/mmdatafocus/portal_backend/workflow"
	"github.com/xuri/excelize/v2"
)

// WriteForecastWorkbook renders an income forecast as a single-sheet xlsx
// workbook. The caller streams the file to the response.
func WriteForecastWorkbook(forecast *workflow.IncomeForecast) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Forecast"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	f.SetCellValue(sheetName, "A1", "Bucket")
	f.SetCellValue(sheetName, "B1", "Amount")

	rowNo := 2
	for _, bucket := range forecast.Buckets {
		f.SetCellValue(sheetName, "A"+fmt.Sprint(rowNo), bucket.Bucket)
		f.SetCellValue(sheetName, "B"+fmt.Sprint(rowNo), bucket.Amount.InexactFloat64())
		rowNo++
	}

	f.SetCellValue(sheetName, "A"+fmt.Sprint(rowNo+1), "Total")
	f.SetCellValue(sheetName, "B"+fmt.Sprint(rowNo+1), forecast.Total.InexactFloat64())

	return f, nil
}
