package app

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/solutiontech/gic/internal/adapters/export"
	"github.com/solutiontech/gic/internal/adapters/httpserver"
	"github.com/solutiontech/gic/internal/adapters/notify"
	sqliterepo "github.com/solutiontech/gic/internal/adapters/repo/sqlite"
	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/internal/usecase"
)

type App struct {
	DB         *gorm.DB
	CustomerUC *usecase.CustomerUC
	Exporter   *export.Exporter
}

func NewApp(db *gorm.DB) (*App, error) {
	backupDir := os.Getenv("BACKUP_DIR")
	if backupDir == "" {
		backupDir = "backups"
	}
	exporter, err := export.New(backupDir)
	if err != nil {
		return nil, err
	}

	country := os.Getenv("TAX_COUNTRY")
	if country == "" {
		country = "CO"
	}

	var notifier domain.Notifier
	if strings.ToLower(os.Getenv("WELCOME_EMAIL_ENABLED")) != "false" {
		notifier = notify.NewFromEnv()
	}

	uc := &usecase.CustomerUC{
		Customers: sqliterepo.NewCustomerRepo(db),
		Notifier:  notifier,
		Country:   country,
	}

	return &App{DB: db, CustomerUC: uc, Exporter: exporter}, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(a.CustomerUC, a.Exporter)
}

// Migrate creates the schema and upgrades rows written under earlier
// revisions: the kind discriminant is backfilled from the old free-text
// type label, and blobs still carrying the old Spanish field names
// (nit/rut, puntos_fidelidad, nivel, ...) are rewritten with the
// canonical keys.
func (a *App) Migrate() error {
	if err := a.DB.AutoMigrate(&sqliterepo.CustomerRecord{}, &sqliterepo.AuditLog{}); err != nil {
		return err
	}

	if err := backfillKinds(a.DB); err != nil {
		return err
	}
	return migrateLegacyBlobs(a.DB)
}

// backfillKinds derives the discriminant for legacy rows from their display
// label. This substring match is the old recovery mechanism; it survives
// only here, running once per legacy row.
func backfillKinds(db *gorm.DB) error {
	var rows []sqliterepo.CustomerRecord
	if err := db.Where("kind IS NULL OR kind = ''").Find(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		var kind domain.Kind
		switch {
		case strings.Contains(row.Type, "Regular"), strings.Contains(row.Type, "Standard"):
			kind = domain.KindStandard
		case strings.Contains(row.Type, "Premium"):
			kind = domain.KindPremium
		case strings.Contains(row.Type, "Corporativo"), strings.Contains(row.Type, "Corporate"):
			kind = domain.KindCorporate
		default:
			// Unrecognized labels stay unset; such rows were already
			// unreachable under the old substring recovery too.
			continue
		}
		if err := db.Model(&sqliterepo.CustomerRecord{}).Where("id = ?", row.ID).
			Update("kind", string(kind)).Error; err != nil {
			return err
		}
	}
	return nil
}

// legacyBlobKeys maps every blob key the earlier revisions wrote to its
// canonical name. Both tax id variants collapse onto tax_id.
var legacyBlobKeys = map[string]string{
	"nit":                 "tax_id",
	"rut":                 "tax_id",
	"puntos_fidelidad":    "loyalty_points",
	"nivel":               "tier",
	"beneficios_extra":    "extra_benefits",
	"empresa":             "company_name",
	"contacto_alterno":    "alternate_contact",
	"facturacion_mensual": "monthly_billing",
}

// legacyTiers translates the stored tier labels of the old revisions.
var legacyTiers = map[string]string{
	"oro":     "gold",
	"plata":   "bronze",
	"platino": "platinum",
}

// migrateLegacyBlobs walks every row and rewrites blobs that still use the
// old Spanish field names. A canonical key already present wins over its
// legacy counterpart; either way the legacy key is removed, so the walk is
// idempotent.
func migrateLegacyBlobs(db *gorm.DB) error {
	var rows []sqliterepo.CustomerRecord
	if err := db.Find(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		if row.SpecificData == "" {
			continue
		}
		var blob map[string]any
		if err := json.Unmarshal([]byte(row.SpecificData), &blob); err != nil {
			continue // undecodable blobs are handled (skipped) at read time
		}
		changed := false
		for legacy, canonical := range legacyBlobKeys {
			v, ok := blob[legacy]
			if !ok {
				continue
			}
			if _, taken := blob[canonical]; !taken {
				blob[canonical] = v
			}
			delete(blob, legacy)
			changed = true
		}
		if tier, ok := blob["tier"].(string); ok {
			if canonical, found := legacyTiers[strings.ToLower(tier)]; found {
				blob["tier"] = canonical
				changed = true
			}
		}
		if !changed {
			continue
		}
		raw, err := json.Marshal(blob)
		if err != nil {
			return err
		}
		if err := db.Model(&sqliterepo.CustomerRecord{}).Where("id = ?", row.ID).
			Update("specific_data", string(raw)).Error; err != nil {
			return err
		}
	}
	return nil
}
