package main

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/supplier-risk/internal/importer"
)

var (
	importFile      string
	importDelimiter string
	importEncoding  string
	importSheet     string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk load suppliers or sites from CSV/XLSX exports",
}

var importSuppliersCmd = &cobra.Command{
	Use:   "suppliers",
	Short: "Import suppliers from a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runImport(cmd, "suppliers")
	},
}

var importSitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Import production sites from a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runImport(cmd, "sites")
	},
}

func runImport(cmd *cobra.Command, kind string) error {
	ctx := cmd.Context()

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "migrate store")
	}

	im := importer.New(st)

	var res *importer.Result
	if strings.HasSuffix(strings.ToLower(importFile), ".xlsx") {
		opts := importer.XLSXOptions{SheetName: importSheet}
		if kind == "suppliers" {
			res, err = im.ImportSuppliersXLSX(ctx, importFile, opts)
		} else {
			res, err = im.ImportSitesXLSX(ctx, importFile, opts)
		}
	} else {
		f, ferr := os.Open(importFile)
		if ferr != nil {
			return eris.Wrap(ferr, "open import file")
		}
		defer f.Close()

		opts := importer.CSVOptions{Encoding: importEncoding}
		if importDelimiter != "" {
			opts.Delimiter = rune(importDelimiter[0])
		}
		if kind == "suppliers" {
			res, err = im.ImportSuppliersCSV(ctx, f, opts)
		} else {
			res, err = im.ImportSitesCSV(ctx, f, opts)
		}
	}
	if err != nil {
		return eris.Wrapf(err, "import %s", kind)
	}

	zap.L().Info("import complete",
		zap.String("kind", kind),
		zap.String("file", importFile),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
	)
	for _, msg := range res.Errors {
		zap.L().Warn("row skipped", zap.String("reason", msg))
	}
	return nil
}

func init() {
	importCmd.PersistentFlags().StringVar(&importFile, "file", "", "path to CSV or XLSX file (required)")
	importCmd.PersistentFlags().StringVar(&importDelimiter, "delimiter", "", "CSV field delimiter (default ',')")
	importCmd.PersistentFlags().StringVar(&importEncoding, "encoding", "", "CSV charset for non-UTF8 exports, e.g. windows-1252")
	importCmd.PersistentFlags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	_ = importCmd.MarkPersistentFlagRequired("file")
	importCmd.AddCommand(importSuppliersCmd, importSitesCmd)
	rootCmd.AddCommand(importCmd)
}
