// Package importer loads suppliers and sites from CSV and XLSX files into
// the store. Rows are validated individually; a bad row is reported and
// skipped, never aborting the whole import.
package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/supplier-risk/internal/model"
	"github.com/sells-group/supplier-risk/internal/store"
)

// batchSize is how many suppliers are upserted per store call.
const batchSize = 500

// Result summarizes one import.
type Result struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// Importer streams supplier and site records into the store.
type Importer struct {
	store store.Store
	log   *zap.Logger
}

// New builds an importer.
func New(st store.Store) *Importer {
	return &Importer{
		store: st,
		log:   zap.L().With(zap.String("component", "importer")),
	}
}

// columnIndex maps normalized header names to their positions. Unknown
// columns are ignored so exports with extra fields still load.
type columnIndex map[string]int

func indexColumns(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		name = strings.ReplaceAll(name, " ", "_")
		idx[name] = i
	}
	return idx
}

func (idx columnIndex) get(row []string, names ...string) string {
	for _, name := range names {
		if i, ok := idx[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
	}
	return ""
}

func (im *Importer) supplierFromRow(idx columnIndex, row []string) (model.Supplier, error) {
	sup := model.Supplier{
		ID:           idx.get(row, "id", "supplier_id"),
		Name:         idx.get(row, "name", "supplier_name"),
		Country:      idx.get(row, "country"),
		IndustryCode: idx.get(row, "industry_code", "nace_code"),
		Dimensions:   model.NeutralDimensions(),
		OverallScore: 50,
		RiskLevel:    model.RiskLevelMedium,
	}
	if sup.Name == "" {
		return sup, fmt.Errorf("missing name")
	}
	if sup.Country == "" {
		return sup, fmt.Errorf("missing country")
	}
	if sup.ID == "" {
		sup.ID = uuid.NewString()
	}
	return sup, nil
}

func (im *Importer) siteFromRow(idx columnIndex, row []string) (model.Site, error) {
	site := model.Site{
		ID:           idx.get(row, "id", "site_id"),
		SupplierID:   idx.get(row, "supplier_id"),
		Name:         idx.get(row, "name", "site_name"),
		Country:      idx.get(row, "country"),
		FacilityType: idx.get(row, "facility_type"),
	}
	if certs := idx.get(row, "certifications"); certs != "" {
		for _, c := range strings.Split(certs, ";") {
			if c = strings.TrimSpace(c); c != "" {
				site.Certifications = append(site.Certifications, c)
			}
		}
	}
	if site.SupplierID == "" {
		return site, fmt.Errorf("missing supplier_id")
	}
	if site.Country == "" {
		return site, fmt.Errorf("missing country")
	}
	if site.ID == "" {
		site.ID = uuid.NewString()
	}
	return site, nil
}

// importSuppliers drains the row channel, batching upserts.
func (im *Importer) importSuppliers(ctx context.Context, header []string, rowCh <-chan []string, errCh <-chan error) (*Result, error) {
	idx := indexColumns(header)
	res := &Result{}
	batch := make([]model.Supplier, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := im.store.UpsertSuppliers(ctx, batch)
		if err != nil {
			return err
		}
		res.Imported += n
		batch = batch[:0]
		return nil
	}

	rowNum := 1
	for row := range rowCh {
		rowNum++
		sup, err := im.supplierFromRow(idx, row)
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		batch = append(batch, sup)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return res, err
			}
		}
	}
	if err := <-errCh; err != nil {
		return res, err
	}
	if err := flush(); err != nil {
		return res, err
	}

	im.log.Info("suppliers imported",
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

// importSites drains the row channel, creating sites one by one.
func (im *Importer) importSites(ctx context.Context, header []string, rowCh <-chan []string, errCh <-chan error) (*Result, error) {
	idx := indexColumns(header)
	res := &Result{}

	rowNum := 1
	for row := range rowCh {
		rowNum++
		site, err := im.siteFromRow(idx, row)
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		if err := im.store.CreateSite(ctx, &site); err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		res.Imported++
	}
	if err := <-errCh; err != nil {
		return res, err
	}

	im.log.Info("sites imported",
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped))
	return res, nil
}
