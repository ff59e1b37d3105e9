// Package export flattens customers into JSON, CSV and XLSX files and keeps
// the backup directory. Variant fields come exclusively through
// Customer.ExtraFields, never by probing.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/solutiontech/gic/internal/domain"
)

// columns is the fixed export layout: base fields first, then every
// variant-specific field; absent ones stay empty.
var columns = []string{
	"id", "name", "email", "phone", "address", "tax_id", "type",
	"registered_at", "active",
	"loyalty_points", "tier", "extra_benefits",
	"company_name", "alternate_contact", "monthly_billing",
}

type Exporter struct{ dir string }

func New(dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Exporter{dir: dir}, nil
}

func (e *Exporter) Dir() string { return e.dir }

// flatten merges Info and ExtraFields into one row mapping.
func flatten(c domain.Customer) map[string]any {
	row := c.Info()
	for k, v := range c.ExtraFields() {
		row[k] = v
	}
	return row
}

func (e *Exporter) defaultName(prefix, ext string) string {
	return fmt.Sprintf("%s_%s.%s", prefix, time.Now().Format("20060102_150405"), ext)
}

// ExportJSON writes the flattened customers to a JSON file under the backup
// dir and returns its path.
func (e *Exporter) ExportJSON(customers []domain.Customer, name string) (string, error) {
	if name == "" {
		name = e.defaultName("clientes_export", "json")
	}
	rows := make([]map[string]any, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, flatten(c))
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// ExportCSV writes the fixed column set; benefit lists are joined with '|'.
func (e *Exporter) ExportCSV(customers []domain.Customer, name string) (string, error) {
	if name == "" {
		name = e.defaultName("clientes_export", "csv")
	}
	path := filepath.Join(e.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return "", err
	}
	for _, c := range customers {
		row := flatten(c)
		rec := make([]string, len(columns))
		for i, col := range columns {
			rec[i] = cellString(row[col])
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	w.Flush()
	return path, w.Error()
}

// ExportXLSX writes one "Clientes" sheet with the same layout as the CSV.
func (e *Exporter) ExportXLSX(customers []domain.Customer, name string) (string, error) {
	if name == "" {
		name = e.defaultName("clientes_export", "xlsx")
	}
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Clientes"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return "", err
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col)
	}
	for r, c := range customers {
		row := flatten(c)
		for i, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			_ = f.SetCellValue(sheet, cell, cellString(row[col]))
		}
	}

	path := filepath.Join(e.dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}

// BackupInfo is the sidecar metadata written next to a full backup.
type BackupInfo struct {
	Date           time.Time         `json:"fecha"`
	TotalCustomers int               `json:"total_clientes"`
	File           string            `json:"archivo"`
	RecentLogs     []domain.LogEntry `json:"ultimos_logs"`
}

// Backup writes a full JSON export plus an info sidecar with the recent
// audit entries, and returns the export path.
func (e *Exporter) Backup(customers []domain.Customer, logs []domain.LogEntry) (string, error) {
	stamp := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("backup_completo_%s.json", stamp)
	path, err := e.ExportJSON(customers, name)
	if err != nil {
		return "", err
	}

	info := BackupInfo{
		Date:           time.Now(),
		TotalCustomers: len(customers),
		File:           name,
		RecentLogs:     logs,
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", err
	}
	infoPath := filepath.Join(e.dir, fmt.Sprintf("info_backup_%s.json", stamp))
	if err := os.WriteFile(infoPath, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

type BackupFile struct {
	Name     string    `json:"nombre"`
	Path     string    `json:"ruta"`
	Size     int64     `json:"tamano"`
	Modified time.Time `json:"fecha_modificacion"`
}

// ListBackups returns the export and backup files, newest first.
func (e *Exporter) ListBackups() ([]BackupFile, error) {
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		return nil, err
	}
	out := []BackupFile{}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "clientes_export_") && !strings.HasPrefix(name, "backup_completo_") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, BackupFile{
			Name:     name,
			Path:     filepath.Join(e.dir, name),
			Size:     fi.Size(),
			Modified: fi.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Modified.After(out[j].Modified) })
	return out, nil
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []string:
		return strings.Join(x, "|")
	case time.Time:
		return x.Format(time.RFC3339)
	case float64:
		return fmt.Sprintf("%.2f", x)
	default:
		return fmt.Sprint(x)
	}
}
