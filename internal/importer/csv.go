package importer

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // comment character (0 = none)
	LazyQuotes bool
	// Encoding names the source charset (e.g. "windows-1252") for legacy
	// ERP exports. Empty means UTF-8.
	Encoding string
}

// decodeReader wraps r with a charset decoder when the export is not UTF-8.
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	if encoding == "" {
		return r, nil
	}
	enc, err := htmlindex.Get(encoding)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: unsupported encoding %q", encoding)
	}
	return enc.NewDecoder().Reader(r), nil
}

// streamCSV reads CSV rows off r and sends them to a channel, with the
// header row returned separately. The caller must drain both channels.
func streamCSV(ctx context.Context, r io.Reader, opts CSVOptions) ([]string, <-chan []string, <-chan error, error) {
	decoded, err := decodeReader(r, opts.Encoding)
	if err != nil {
		return nil, nil, nil, err
	}
	reader := csv.NewReader(decoded)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	if opts.Comment != 0 {
		reader.Comment = opts.Comment
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err != nil {
		return nil, nil, nil, eris.Wrap(err, "importer: read csv header")
	}

	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "importer: csv cancelled")
				return
			}
			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "importer: read csv row")
				return
			}
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
			}
			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "importer: csv cancelled")
				return
			}
		}
	}()

	return header, rowCh, errCh, nil
}

// ImportSuppliersCSV loads a supplier CSV. The first row must be a header;
// recognized columns are id, name, country, and industry_code.
func (im *Importer) ImportSuppliersCSV(ctx context.Context, r io.Reader, opts CSVOptions) (*Result, error) {
	header, rowCh, errCh, err := streamCSV(ctx, r, opts)
	if err != nil {
		return nil, err
	}
	return im.importSuppliers(ctx, header, rowCh, errCh)
}

// ImportSitesCSV loads a site CSV. Recognized columns are id, supplier_id,
// name, country, facility_type, and certifications (semicolon separated).
func (im *Importer) ImportSitesCSV(ctx context.Context, r io.Reader, opts CSVOptions) (*Result, error) {
	header, rowCh, errCh, err := streamCSV(ctx, r, opts)
	if err != nil {
		return nil, err
	}
	return im.importSites(ctx, header, rowCh, errCh)
}
