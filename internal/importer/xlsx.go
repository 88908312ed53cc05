package importer

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures the XLSX parser.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ImportSuppliersXLSX loads a supplier workbook. The first row of the
// selected sheet must be a header.
func (im *Importer) ImportSuppliersXLSX(ctx context.Context, path string, opts XLSXOptions) (*Result, error) {
	header, rowCh, errCh, err := streamXLSX(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return im.importSuppliers(ctx, header, rowCh, errCh)
}

// ImportSitesXLSX loads a site workbook.
func (im *Importer) ImportSitesXLSX(ctx context.Context, path string, opts XLSXOptions) (*Result, error) {
	header, rowCh, errCh, err := streamXLSX(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return im.importSites(ctx, header, rowCh, errCh)
}

func streamXLSX(ctx context.Context, path string, opts XLSXOptions) ([]string, <-chan []string, <-chan error, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, nil, eris.Wrap(err, "importer: open xlsx")
	}
	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, nil, nil, eris.Errorf("importer: sheet %q is empty", sheet.Name)
	}

	header := rowToStrings(sheet.Rows[0])
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		for _, row := range sheet.Rows[1:] {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "importer: xlsx cancelled")
				return
			}
			select {
			case rowCh <- rowToStrings(row):
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "importer: xlsx cancelled")
				return
			}
		}
	}()

	return header, rowCh, errCh, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("importer: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}
	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("importer: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
