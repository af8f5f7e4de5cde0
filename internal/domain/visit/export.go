package visit

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/bidan/registry/internal/platform/locale"
	"github.com/bidan/registry/pkg/age"
	"github.com/bidan/registry/pkg/caldate"
)

// ExportSheet is the worksheet name of the export workbook.
const ExportSheet = "Kunjungan"

var exportHeader = []interface{}{
	"Baris", "No. Registrasi", "Tanggal", "Tanggal (ISO)", "Nama Lengkap", "Wali",
	"Alamat", "Usia", "Usia (Normal)", "Kategori Usia", "Keluhan", "Terapi",
	"Keterangan", "Status",
}

// Export writes the whole register as an XLSX workbook. Dates and ages are
// written both as entered and normalised; unparseable values are kept as
// entered.
func (s *Service) Export(ctx context.Context, w io.Writer, loc *locale.Localizer) error {
	visits, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	return WriteWorkbook(w, visits, loc)
}

// WriteWorkbook renders visits into an XLSX workbook on w.
func WriteWorkbook(w io.Writer, visits []*Visit, loc *locale.Localizer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeader))
	if err := f.SetCellStyle(ExportSheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, v := range visits {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		cat := age.Categorize(v.Age)
		status := loc.T(locale.StatusNotServed)
		if v.IsServed() {
			status = loc.T(locale.StatusServed)
		}
		row := []interface{}{
			v.Row,
			v.RegistrationNumber,
			caldate.FormatRaw(v.VisitDate, caldate.Display, loc.Names()),
			caldate.FormatRaw(v.VisitDate, caldate.InputControl, nil),
			v.FullName,
			v.Guardian,
			v.Address,
			v.Age,
			age.FormatRaw(v.Age),
			loc.AgeCategory(cat),
			v.Complaint,
			v.Therapy,
			v.Notes,
			status,
		}
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", v.Row, err)
		}
	}

	if err := f.SetColWidth(ExportSheet, "B", lastCol, 18); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if err := f.SetPanes(ExportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
