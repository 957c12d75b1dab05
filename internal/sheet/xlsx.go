package sheet

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// unzipRatio bounds the decompressed workbook size relative to the upload cap.
const unzipRatio = 20

func (p *Parser) decodeXLSX(data []byte) (grid [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			grid = nil
			err = fmt.Errorf("xlsx decoder panic: %v", r)
		}
	}()

	limit := p.maxBytes * unzipRatio
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{
		RawCellValue:      true,
		UnzipSizeLimit:    limit,
		UnzipXMLSizeLimit: limit,
	})
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	first := sheets[0]

	rows, err := f.GetRows(first, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	// Raw boolean cells read back as "1" or "0". Restore their TRUE/FALSE
	// text so inference yields a bool rather than a number.
	for r, row := range rows {
		for c, v := range row {
			if v != "0" && v != "1" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				continue
			}
			typ, err := f.GetCellType(first, cell)
			if err != nil || typ != excelize.CellTypeBool {
				continue
			}
			if v == "1" {
				rows[r][c] = "TRUE"
			} else {
				rows[r][c] = "FALSE"
			}
		}
	}
	return rows, nil
}
