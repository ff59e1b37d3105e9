package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/solutiontech/gic/internal/adapters/export"
	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/internal/usecase"
	"github.com/solutiontech/gic/internal/validation"
)

// Server is the presentation boundary: it turns request fields into entity
// operations and surfaces validation reasons verbatim. Storage problems
// come back from the layers below already reduced to generic outcomes.
type Server struct {
	customers *usecase.CustomerUC
	exporter  *export.Exporter
	mux       *http.ServeMux
}

func New(customers *usecase.CustomerUC, exporter *export.Exporter) http.Handler {
	s := &Server{customers: customers, exporter: exporter, mux: http.NewServeMux()}
	s.routes()
	return s.withRequestLog(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/customers", s.apiCustomers)
	s.mux.HandleFunc("/api/customers/", s.apiCustomerByID)
	s.mux.HandleFunc("/api/search", s.apiSearch)

	s.mux.HandleFunc("/api/validate/email", s.apiValidateEmail)
	s.mux.HandleFunc("/api/validate/phone", s.apiValidatePhone)
	s.mux.HandleFunc("/api/validate/taxid", s.apiValidateTaxID)

	s.mux.HandleFunc("/admin/export/json", s.handleExport("json"))
	s.mux.HandleFunc("/admin/export/csv", s.handleExport("csv"))
	s.mux.HandleFunc("/admin/export/xlsx", s.handleExport("xlsx"))
	s.mux.HandleFunc("/admin/backup", s.handleBackup)
	s.mux.HandleFunc("/admin/backups", s.handleBackupList)
	s.mux.HandleFunc("/admin/logs", s.handleLogs)
}

// withRequestLog tags every request with an id and emits one access-log
// line per request.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r)
		log.Info().Str("req_id", reqID).Str("method", r.Method).Str("path", r.URL.Path).Msg("request")
	})
}

type customerPayload struct {
	ID      int    `json:"id"`
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	TaxID   string `json:"tax_id"`

	LoyaltyPoints    int    `json:"loyalty_points"`
	Tier             string `json:"tier"`
	CompanyName      string `json:"company_name"`
	AlternateContact string `json:"alternate_contact"`
}

type updatePayload struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	TaxID   *string `json:"tax_id"`
	Active  *bool   `json:"active"`
}

func customerView(c domain.Customer) map[string]any {
	view := c.Info()
	view["kind"] = string(c.Kind())
	view["extra"] = c.ExtraFields()
	return view
}

func (s *Server) apiCustomers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list := s.customers.List(r.Context())
		views := make([]map[string]any, 0, len(list))
		for _, c := range list {
			views = append(views, customerView(c))
		}
		writeJSON(w, 200, map[string]any{"items": views, "total": len(views)})
	case http.MethodPost:
		var req customerPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, 400, map[string]any{"status": "error", "message": "invalid json"})
			return
		}
		c, err := s.customers.Register(r.Context(), usecase.CreateInput{
			ID:               req.ID,
			Kind:             req.Kind,
			Name:             req.Name,
			Email:            req.Email,
			Phone:            req.Phone,
			Address:          req.Address,
			TaxID:            req.TaxID,
			LoyaltyPoints:    req.LoyaltyPoints,
			Tier:             req.Tier,
			CompanyName:      req.CompanyName,
			AlternateContact: req.AlternateContact,
		})
		if err != nil {
			writeJSON(w, 400, map[string]any{"status": "error", "message": err.Error()})
			return
		}
		writeJSON(w, 201, customerView(c))
	default:
		http.Error(w, "method", 405)
	}
}

// /api/customers/{id}[/points|/benefits|/billing|/discount]
func (s *Server) apiCustomerByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/customers/")
	idStr, sub, _ := strings.Cut(rest, "/")
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		http.Error(w, "id", 400)
		return
	}
	if sub != "" {
		s.apiCustomerSub(w, r, id, sub)
		return
	}

	switch r.Method {
	case http.MethodGet:
		c, err := s.customers.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "not found", 404)
				return
			}
			http.Error(w, "load", 500)
			return
		}
		writeJSON(w, 200, customerView(c))
	case http.MethodPut:
		var req updatePayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, 400, map[string]any{"status": "error", "message": "invalid json"})
			return
		}
		c, err := s.customers.Update(r.Context(), id, usecase.UpdateInput{
			Name:    req.Name,
			Email:   req.Email,
			Phone:   req.Phone,
			Address: req.Address,
			TaxID:   req.TaxID,
			Active:  req.Active,
		})
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "not found", 404)
				return
			}
			writeJSON(w, 400, map[string]any{"status": "error", "message": err.Error()})
			return
		}
		writeJSON(w, 200, customerView(c))
	case http.MethodDelete:
		if err := s.customers.Delete(r.Context(), id); err != nil {
			http.Error(w, "not found", 404)
			return
		}
		writeJSON(w, 200, map[string]any{"status": "ok", "deleted": id})
	default:
		http.Error(w, "method", 405)
	}
}

func (s *Server) apiCustomerSub(w http.ResponseWriter, r *http.Request, id int, sub string) {
	if sub == "discount" {
		if r.Method != http.MethodGet {
			http.Error(w, "method", 405)
			return
		}
		amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
		if err != nil || amount < 0 {
			http.Error(w, "amount", 400)
			return
		}
		d, err := s.customers.QuoteDiscount(r.Context(), id, amount)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "not found", 404)
				return
			}
			writeJSON(w, 400, map[string]any{"status": "error", "message": err.Error()})
			return
		}
		writeJSON(w, 200, map[string]any{"id": id, "amount": amount, "discount": d})
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	var req struct {
		Action  string  `json:"action"`
		Points  int     `json:"points"`
		Benefit string  `json:"benefit"`
		Amount  float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, 400, map[string]any{"status": "error", "message": "invalid json"})
		return
	}

	var c domain.Customer
	var err error
	switch sub {
	case "points":
		if req.Action == "redeem" {
			c, err = s.customers.RedeemPoints(r.Context(), id, req.Points)
		} else {
			c, err = s.customers.AddPoints(r.Context(), id, req.Points)
		}
	case "benefits":
		c, err = s.customers.AddBenefit(r.Context(), id, req.Benefit)
	case "billing":
		c, err = s.customers.UpdateBilling(r.Context(), id, req.Amount)
	default:
		http.Error(w, "not found", 404)
		return
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "not found", 404)
			return
		}
		writeJSON(w, 400, map[string]any{"status": "error", "message": err.Error()})
		return
	}
	writeJSON(w, 200, customerView(c))
}

// /api/search?q=...&fields=name,email
func (s *Server) apiSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method", 405)
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		http.Error(w, "q", 400)
		return
	}
	fields := []string{"name", "email"}
	if raw := r.URL.Query().Get("fields"); raw != "" {
		fields = strings.Split(raw, ",")
	}
	list := s.customers.SearchMulti(r.Context(), fields, q)
	views := make([]map[string]any, 0, len(list))
	for _, c := range list {
		views = append(views, customerView(c))
	}
	writeJSON(w, 200, map[string]any{"items": views, "total": len(views)})
}

func (s *Server) apiValidateEmail(w http.ResponseWriter, r *http.Request) {
	ok, msg := validation.ValidateEmail(r.URL.Query().Get("value"))
	writeJSON(w, 200, map[string]any{"valid": ok, "message": msg})
}

func (s *Server) apiValidatePhone(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	if region == "" {
		region = "CO"
	}
	ok, msg := validation.ValidatePhone(r.URL.Query().Get("value"), region)
	writeJSON(w, 200, map[string]any{"valid": ok, "message": msg})
}

func (s *Server) apiValidateTaxID(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	if country == "" {
		country = "CO"
	}
	ok, msg := validation.ValidateTaxID(r.URL.Query().Get("value"), country)
	writeJSON(w, 200, map[string]any{"valid": ok, "message": msg})
}

func (s *Server) handleExport(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.requireAdmin(w, r) {
			return
		}
		list := s.customers.List(r.Context())
		var path string
		var err error
		switch format {
		case "csv":
			path, err = s.exporter.ExportCSV(list, "")
		case "xlsx":
			path, err = s.exporter.ExportXLSX(list, "")
		default:
			path, err = s.exporter.ExportJSON(list, "")
		}
		if err != nil {
			log.Error().Err(err).Str("format", format).Msg("exportar clientes")
			http.Error(w, "export", 500)
			return
		}
		writeJSON(w, 200, map[string]any{"status": "ok", "file": path, "total": len(list)})
	}
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	list := s.customers.List(r.Context())
	logs := s.customers.RecentLogs(r.Context(), 50)
	path, err := s.exporter.Backup(list, logs)
	if err != nil {
		log.Error().Err(err).Msg("crear backup")
		http.Error(w, "backup", 500)
		return
	}
	writeJSON(w, 200, map[string]any{"status": "ok", "file": path, "total": len(list)})
}

func (s *Server) handleBackupList(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	backups, err := s.exporter.ListBackups()
	if err != nil {
		log.Error().Err(err).Msg("listar backups")
		http.Error(w, "backups", 500)
		return
	}
	writeJSON(w, 200, map[string]any{"items": backups, "total": len(backups)})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	writeJSON(w, 200, map[string]any{"items": s.customers.RecentLogs(r.Context(), limit)})
}

func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	key := os.Getenv("ADMIN_API_KEY")
	if key == "" {
		log.Error().Msg("ADMIN_API_KEY faltante")
		http.Error(w, "unauthorized", 401)
		return false
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") && strings.TrimSpace(auth[7:]) == key {
		return true
	}
	http.Error(w, "unauthorized", 401)
	return false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
