package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/solutiontech/gic/internal/domain"
)

// CustomerRepo stores customers in the embedded sqlite database. Per the
// error contract, storage failures stay here: they are logged and flattened
// to false/nil/empty so callers only ever see the business-level outcome.
type CustomerRepo struct{ db *gorm.DB }

func NewCustomerRepo(db *gorm.DB) *CustomerRepo { return &CustomerRepo{db: db} }

// searchableColumns is the allow-list for Search. Anything else is refused
// here, not in the caller, so a hostile field name never reaches the query.
var searchableColumns = map[string]string{
	"name":    "name",
	"email":   "email",
	"phone":   "phone",
	"address": "address",
}

// Save upserts by id with full-overwrite semantics and appends a
// CUSTOMER_SAVED audit entry.
func (r *CustomerRepo) Save(ctx context.Context, c domain.Customer) bool {
	rec, err := encode(c)
	if err != nil {
		log.Error().Err(err).Int("id", c.ID()).Msg("serializar cliente")
		return false
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&rec).Error
	if err != nil {
		log.Error().Err(err).Int("id", c.ID()).Msg("guardar cliente")
		return false
	}
	r.AppendLog(ctx, "CUSTOMER_SAVED", fmt.Sprintf("Cliente %d - %s", c.ID(), c.Name()))
	return true
}

// Load returns nil both when the row is absent and when storage or decode
// fails; the distinction only shows up in the log output.
func (r *CustomerRepo) Load(ctx context.Context, id int) domain.Customer {
	var rec CustomerRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error().Err(err).Int("id", id).Msg("cargar cliente")
		}
		return nil
	}
	c, err := decode(rec)
	if err != nil {
		log.Warn().Err(err).Int("id", id).Msg("fila de cliente indescifrable")
		return nil
	}
	return c
}

// LoadAll returns every decodable customer ordered by name. Rows that fail
// to decode are skipped with a warning.
func (r *CustomerRepo) LoadAll(ctx context.Context) []domain.Customer {
	var recs []CustomerRecord
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&recs).Error; err != nil {
		log.Error().Err(err).Msg("listar clientes")
		return []domain.Customer{}
	}
	return r.decodeAll(recs)
}

// Search does a %value% match on one allow-listed column, ordered by name.
func (r *CustomerRepo) Search(ctx context.Context, field, value string) []domain.Customer {
	col, ok := searchableColumns[field]
	if !ok {
		log.Warn().Str("field", field).Msg("columna de búsqueda no permitida")
		return []domain.Customer{}
	}
	var recs []CustomerRecord
	err := r.db.WithContext(ctx).
		Where(col+" LIKE ?", "%"+value+"%").
		Order("name ASC").
		Find(&recs).Error
	if err != nil {
		log.Error().Err(err).Str("field", field).Msg("buscar clientes")
		return []domain.Customer{}
	}
	return r.decodeAll(recs)
}

// Delete reports true only when a row was actually removed, and audits only
// then.
func (r *CustomerRepo) Delete(ctx context.Context, id int) bool {
	res := r.db.WithContext(ctx).Delete(&CustomerRecord{}, "id = ?", id)
	if res.Error != nil {
		log.Error().Err(res.Error).Int("id", id).Msg("eliminar cliente")
		return false
	}
	if res.RowsAffected == 0 {
		return false
	}
	r.AppendLog(ctx, "CUSTOMER_DELETED", fmt.Sprintf("Cliente %d", id))
	return true
}

// AppendLog is best effort: audit logging must never block a primary
// operation, so failures are swallowed after a warning.
func (r *CustomerRepo) AppendLog(ctx context.Context, action, details string) {
	entry := AuditLog{Timestamp: time.Now(), Action: action, Details: details}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Warn().Err(err).Str("action", action).Msg("registrar log")
	}
}

// RecentLogs returns the newest entries first.
func (r *CustomerRepo) RecentLogs(ctx context.Context, limit int) []domain.LogEntry {
	if limit <= 0 {
		limit = 100
	}
	var rows []AuditLog
	err := r.db.WithContext(ctx).Order("timestamp DESC, id DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		log.Error().Err(err).Msg("leer logs")
		return []domain.LogEntry{}
	}
	out := make([]domain.LogEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.LogEntry{
			ID:        row.ID,
			Timestamp: row.Timestamp,
			Action:    row.Action,
			Details:   row.Details,
			User:      row.User,
		})
	}
	return out
}

func (r *CustomerRepo) decodeAll(recs []CustomerRecord) []domain.Customer {
	out := make([]domain.Customer, 0, len(recs))
	for _, rec := range recs {
		c, err := decode(rec)
		if err != nil {
			log.Warn().Err(err).Int("id", rec.ID).Msg("fila de cliente indescifrable, se omite")
			continue
		}
		out = append(out, c)
	}
	return out
}
