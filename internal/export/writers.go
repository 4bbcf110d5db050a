package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/parquet-go/parquet-go"
	"github.com/pixora-ai/pixora/internal/models"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Write renders result in the given format. sheet selects the table for CSV
// and defaults to the General SEO sheet; other formats ignore it.
func Write(w io.Writer, result *models.AnalysisResult, format Format, sheet string) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, Sheets(result))
	case FormatCSV:
		if sheet == "" {
			sheet = SheetGeneral
		}
		s, ok := Find(Sheets(result), sheet)
		if !ok {
			return fmt.Errorf("unknown sheet: %s", sheet)
		}
		return WriteCSV(w, s)
	case FormatYAML:
		return WriteYAML(w, result)
	case FormatParquet:
		return WriteParquet(w, result)
	}
	return fmt.Errorf("unsupported export format: %s", format)
}

// WriteXLSX writes one worksheet per sheet, in order
func WriteXLSX(w io.Writer, sheets []Sheet) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("Failed to close workbook", "err", err)
		}
	}()

	wrap, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("failed to create cell style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", s.Name, err)
		}

		if err := setRow(f, s.Name, 1, s.Headers); err != nil {
			return err
		}
		for r, row := range s.Rows {
			if err := setRow(f, s.Name, r+2, row); err != nil {
				return err
			}
		}

		last, err := excelize.ColumnNumberToName(len(s.Headers))
		if err != nil {
			return fmt.Errorf("failed to resolve column: %w", err)
		}
		if err := f.SetColWidth(s.Name, "A", last, 32); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
		if err := f.SetColStyle(s.Name, "A:"+last, wrap); err != nil {
			return fmt.Errorf("failed to set column style: %w", err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to resolve cell: %w", err)
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}

// WriteCSV writes a single sheet with its header row
func WriteCSV(w io.Writer, s Sheet) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(s.Headers); err != nil {
		return err
	}
	for _, row := range s.Rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteYAML writes the full result document
func WriteYAML(w io.Writer, result *models.AnalysisResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

// GeneralRow is the Parquet row layout of the General SEO sheet, extended
// with the batch preset and the list columns kept as lists.
type GeneralRow struct {
	ImageIndex         int32    `parquet:"image_index"`
	InputFilename      string   `parquet:"input_filename"`
	SEOFilename        string   `parquet:"seo_filename"`
	AltText            string   `parquet:"alt_text"`
	Title              string   `parquet:"title"`
	MetaDescription    string   `parquet:"meta_description"`
	ProductDescription string   `parquet:"product_description"`
	FocusKeywords      []string `parquet:"focus_keywords,list"`
	Tags               []string `parquet:"tags,list"`
	Category           string   `parquet:"category,optional"`
	Material           string   `parquet:"material,optional"`
	Color              string   `parquet:"color,optional"`
	Style              string   `parquet:"style,optional"`
	Preset             string   `parquet:"preset"`
}

// GeneralRows flattens the result into Parquet rows
func GeneralRows(result *models.AnalysisResult) []GeneralRow {
	if result == nil {
		return nil
	}
	preset := ""
	if result.BatchSummary != nil {
		preset = string(result.BatchSummary.Preset)
	}

	rows := make([]GeneralRow, 0, len(result.Images))
	for _, img := range result.Images {
		row := GeneralRow{
			ImageIndex:    int32(img.ImageIndex),
			InputFilename: img.InputFilename,
			Preset:        preset,
		}
		if img.SEO != nil {
			row.SEOFilename = img.SEO.SEOFilename
			row.AltText = img.SEO.AltText
			row.Title = img.SEO.Title
			row.MetaDescription = img.SEO.Description
			row.ProductDescription = img.SEO.ProductDescription
			row.FocusKeywords = img.SEO.FocusKeywords
			row.Tags = img.SEO.Tags
		}
		if img.Detected != nil {
			row.Category = img.Detected.Category
			row.Material = img.Detected.Material
			row.Color = img.Detected.Color
			row.Style = img.Detected.Style
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteParquet writes the General SEO rows as a Parquet file
func WriteParquet(w io.Writer, result *models.AnalysisResult) error {
	writer := parquet.NewGenericWriter[GeneralRow](w)

	rows := GeneralRows(result)
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
