package app

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	sqliterepo "github.com/solutiontech/gic/internal/adapters/repo/sqlite"
	"github.com/solutiontech/gic/internal/domain"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

// TestMigrateUpgradesLegacyRows plants rows exactly as the old system
// wrote them: no kind discriminant (free-text label only) and blobs keyed
// entirely in Spanish, tax id under nit/rut. After Migrate every variant
// must decode as a first-class customer with nothing lost.
func TestMigrateUpgradesLegacyRows(t *testing.T) {
	db := openTestDB(t)
	a := &App{DB: db}
	require.NoError(t, a.Migrate())

	legacy := []sqliterepo.CustomerRecord{
		{
			ID: 1, Kind: "", Type: "Cliente Regular", Name: "Juan Pérez",
			Email: "juan@email.com", Phone: "123456789", Address: "Calle 123",
			RegisteredAt: time.Now(), Active: true,
			SpecificData: `{"rut":"12345678-5","puntos_fidelidad":50}`,
		},
		{
			ID: 2, Kind: "", Type: "Premium (platino)", Name: "María López",
			Email: "maria@email.com", Phone: "987654321", Address: "Avenida 456",
			RegisteredAt: time.Now(), Active: true,
			SpecificData: `{"nit":"800197268-4","nivel":"platino","beneficios_extra":["envío gratis"]}`,
		},
		{
			ID: 3, Kind: "", Type: "Corporativo", Name: "Carlos Ruiz",
			Email: "carlos@empresa.com", Phone: "55512345", Address: "Carrera 789",
			RegisteredAt: time.Now(), Active: true,
			SpecificData: `{"empresa":"Tech Solutions","nit":"900123456","contacto_alterno":"Ana Gómez","facturacion_mensual":12000}`,
		},
	}
	for i := range legacy {
		require.NoError(t, db.Create(&legacy[i]).Error)
	}

	// Second run performs the one-time upgrade.
	require.NoError(t, a.Migrate())

	repo := sqliterepo.NewCustomerRepo(db)
	ctx := context.Background()

	std := repo.Load(ctx, 1)
	require.NotNil(t, std)
	assert.Equal(t, domain.KindStandard, std.Kind())
	assert.Equal(t, "12345678-5", std.TaxID())
	assert.Equal(t, 50, std.(*domain.Standard).LoyaltyPoints())

	prem := repo.Load(ctx, 2)
	require.NotNil(t, prem)
	assert.Equal(t, domain.KindPremium, prem.Kind())
	assert.Equal(t, domain.TierPlatinum, prem.(*domain.Premium).Tier())
	assert.InDelta(t, 200, prem.CalculateDiscount(1000), 1e-9)
	assert.Equal(t, []string{"envío gratis"}, prem.(*domain.Premium).Benefits())

	corp := repo.Load(ctx, 3)
	require.NotNil(t, corp)
	assert.Equal(t, domain.KindCorporate, corp.Kind())
	assert.Equal(t, "900123456", corp.TaxID())
	assert.Equal(t, "Tech Solutions", corp.(*domain.Corporate).CompanyName())
	assert.Equal(t, "Ana Gómez", corp.(*domain.Corporate).AlternateContact())
	assert.InDelta(t, 12000, corp.(*domain.Corporate).MonthlyBilling(), 1e-9)

	// The legacy keys are gone from the blob.
	var rec sqliterepo.CustomerRecord
	require.NoError(t, db.First(&rec, "id = ?", 3).Error)
	var blob map[string]any
	require.NoError(t, json.Unmarshal([]byte(rec.SpecificData), &blob))
	for _, legacyKey := range []string{"nit", "empresa", "contacto_alterno", "facturacion_mensual"} {
		assert.NotContains(t, blob, legacyKey)
	}
	assert.Equal(t, "900123456", blob["tax_id"])
}

// TestMigrateIsIdempotent verifies a repeated run leaves migrated rows
// alone.
func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	a := &App{DB: db}
	require.NoError(t, a.Migrate())

	repo := sqliterepo.NewCustomerRepo(db)
	c, err := domain.NewStandard(1, "Juan Pérez", "juan@email.com", "123456789", "Calle 123", "800197268-4", 5, time.Time{})
	require.NoError(t, err)
	require.True(t, repo.Save(context.Background(), c))

	require.NoError(t, a.Migrate())

	got := repo.Load(context.Background(), 1)
	require.NotNil(t, got)
	assert.Equal(t, "800197268-4", got.TaxID())
	assert.Equal(t, 5, got.(*domain.Standard).LoyaltyPoints())
}

func TestMigrateLeavesUnknownLabelsUnset(t *testing.T) {
	db := openTestDB(t)
	a := &App{DB: db}
	require.NoError(t, a.Migrate())

	rec := sqliterepo.CustomerRecord{
		ID: 9, Kind: "", Type: "Mayorista", Name: "Raro", Email: "raro@email.com",
		Phone: "123456789", Address: "Calle 1", RegisteredAt: time.Now(), Active: true,
		SpecificData: `{"tax_id":"123456"}`,
	}
	require.NoError(t, db.Create(&rec).Error)
	require.NoError(t, a.Migrate())

	repo := sqliterepo.NewCustomerRepo(db)
	assert.Nil(t, repo.Load(context.Background(), 9), "still unreachable, as before")
}
