package payroll

import (
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ExportFile is the rendered salary provider payload.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ErrNoEntries is returned when a period holds nothing to export.
var ErrNoEntries = errors.New("payroll: no time entries in period")

// ErrUnknownFormat is returned for unsupported export formats.
var ErrUnknownFormat = errors.New("payroll: unknown export format")

// RenderExport produces the provider file for the period's entries.
func RenderExport(period Period, entries []TimeEntry, format ExportFormat) (ExportFile, error) {
	if len(entries) == 0 {
		return ExportFile{}, ErrNoEntries
	}
	switch format {
	case FormatPAXML:
		return renderPAXML(period, entries)
	case FormatCSV:
		return renderCSV(period, entries)
	default:
		return ExportFile{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// PAXML document shape. Only the time transaction subset is produced; that is
// what the salary providers consume for hour-based payroll.
type paxmlDoc struct {
	XMLName xml.Name     `xml:"paxml"`
	Header  paxmlHeader  `xml:"header"`
	Trans   []paxmlTrans `xml:"tidtransaktioner>tidtrans"`
}

type paxmlHeader struct {
	Format  string `xml:"format"`
	Version string `xml:"version"`
}

type paxmlTrans struct {
	EmployeeID string `xml:"anstid,attr"`
	Code       string `xml:"tidkod"`
	Date       string `xml:"datum"`
	Hours      string `xml:"timmar"`
}

func renderPAXML(period Period, entries []TimeEntry) (ExportFile, error) {
	sorted := sortEntries(entries)
	doc := paxmlDoc{
		Header: paxmlHeader{Format: "LÖNIN", Version: "2.0"},
	}
	for _, e := range sorted {
		doc.Trans = append(doc.Trans, paxmlTrans{
			EmployeeID: strconv.FormatInt(e.EmployeeID, 10),
			Code:       "ARB",
			Date:       e.Date.Format("2006-01-02"),
			Hours:      strconv.FormatFloat(e.Hours, 'f', 2, 64),
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return ExportFile{}, fmt.Errorf("payroll: render paxml: %w", err)
	}
	buf.WriteByte('\n')

	return ExportFile{
		Filename:    exportFilename(period, "xml"),
		ContentType: "application/xml",
		Content:     buf.Bytes(),
	}, nil
}

// renderCSV aggregates total hours per employee, one row each.
func renderCSV(period Period, entries []TimeEntry) (ExportFile, error) {
	type agg struct {
		name  string
		hours float64
	}
	totals := make(map[int64]*agg)
	for _, e := range entries {
		a, ok := totals[e.EmployeeID]
		if !ok {
			a = &agg{name: e.EmployeeName}
			totals[e.EmployeeID] = a
		}
		a.hours += e.Hours
	}

	ids := make([]int64, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	_ = w.Write([]string{"employee_id", "employee_name", "total_hours"})
	for _, id := range ids {
		a := totals[id]
		if err := w.Write([]string{
			strconv.FormatInt(id, 10),
			a.name,
			strconv.FormatFloat(a.hours, 'f', 2, 64),
		}); err != nil {
			return ExportFile{}, fmt.Errorf("payroll: render csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return ExportFile{}, fmt.Errorf("payroll: render csv: %w", err)
	}

	return ExportFile{
		Filename:    exportFilename(period, "csv"),
		ContentType: "text/csv",
		Content:     buf.Bytes(),
	}, nil
}

func sortEntries(entries []TimeEntry) []TimeEntry {
	sorted := make([]TimeEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].EmployeeID != sorted[j].EmployeeID {
			return sorted[i].EmployeeID < sorted[j].EmployeeID
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

func exportFilename(period Period, ext string) string {
	return fmt.Sprintf("payroll_%s_%s.%s",
		period.StartDate.Format("20060102"), period.EndDate.Format("20060102"), ext)
}
