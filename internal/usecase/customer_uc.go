package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/solutiontech/gic/internal/domain"
	"github.com/solutiontech/gic/internal/validation"
)

// CustomerUC orchestrates the entity model, the store and the welcome
// notification. Validation failures surface as errors with their reason;
// storage failures arrive from the repo already flattened.
type CustomerUC struct {
	Customers domain.CustomerRepo
	Notifier  domain.Notifier
	// Country selects the tax-id check-digit algorithm at registration.
	Country string
}

type CreateInput struct {
	ID      int
	Kind    string
	Name    string
	Email   string
	Phone   string
	Address string
	TaxID   string

	LoyaltyPoints    int    // standard
	Tier             string // premium
	CompanyName      string // corporate
	AlternateContact string // corporate
}

type UpdateInput struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
	TaxID   *string
	Active  *bool
}

// Register validates, builds the right variant, persists it and fires the
// welcome notification without blocking on it.
func (uc *CustomerUC) Register(ctx context.Context, in CreateInput) (domain.Customer, error) {
	kind, err := domain.ParseKind(in.Kind)
	if err != nil {
		return nil, err
	}
	if uc.Country != "" {
		if ok, reason := validation.ValidateTaxID(in.TaxID, uc.Country); !ok {
			return nil, errors.New(reason)
		}
	}

	var c domain.Customer
	var when time.Time // zero: registered now
	switch kind {
	case domain.KindStandard:
		c, err = domain.NewStandard(in.ID, in.Name, in.Email, in.Phone, in.Address, in.TaxID, in.LoyaltyPoints, when)
	case domain.KindPremium:
		c, err = domain.NewPremium(in.ID, in.Name, in.Email, in.Phone, in.Address, in.TaxID, in.Tier, when)
	case domain.KindCorporate:
		c, err = domain.NewCorporate(in.ID, in.Name, in.Email, in.Phone, in.Address, in.TaxID, in.CompanyName, in.AlternateContact, when)
	}
	if err != nil {
		return nil, err
	}
	if !uc.Customers.Save(ctx, c) {
		return nil, errors.New("no se pudo guardar el cliente")
	}

	if uc.Notifier != nil {
		go func(c domain.Customer) {
			if err := uc.Notifier.SendWelcome(c); err != nil {
				log.Warn().Err(err).Int("id", c.ID()).Msg("email de bienvenida fallo")
			}
		}(c)
	}
	return c, nil
}

func (uc *CustomerUC) Get(ctx context.Context, id int) (domain.Customer, error) {
	if id <= 0 {
		return nil, errors.New("id inválido")
	}
	c := uc.Customers.Load(ctx, id)
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (uc *CustomerUC) List(ctx context.Context) []domain.Customer {
	return uc.Customers.LoadAll(ctx)
}

// Update applies the present patch fields through the entity setters (each
// re-validates) and re-saves with overwrite semantics.
func (uc *CustomerUC) Update(ctx context.Context, id int, in UpdateInput) (domain.Customer, error) {
	c, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if err := c.SetName(*in.Name); err != nil {
			return nil, err
		}
	}
	if in.Email != nil {
		if err := c.SetEmail(*in.Email); err != nil {
			return nil, err
		}
	}
	if in.Phone != nil {
		if err := c.SetPhone(*in.Phone); err != nil {
			return nil, err
		}
	}
	if in.Address != nil {
		if err := c.SetAddress(*in.Address); err != nil {
			return nil, err
		}
	}
	if in.TaxID != nil {
		if uc.Country != "" {
			if ok, reason := validation.ValidateTaxID(*in.TaxID, uc.Country); !ok {
				return nil, errors.New(reason)
			}
		}
		if err := c.SetTaxID(*in.TaxID); err != nil {
			return nil, err
		}
	}
	if in.Active != nil {
		c.SetActive(*in.Active)
	}
	if !uc.Customers.Save(ctx, c) {
		return nil, errors.New("no se pudo guardar el cliente")
	}
	return c, nil
}

func (uc *CustomerUC) Delete(ctx context.Context, id int) error {
	if !uc.Customers.Delete(ctx, id) {
		return domain.ErrNotFound
	}
	return nil
}

// SearchMulti runs the same value against several allow-listed fields,
// de-duplicates by id and orders by name.
func (uc *CustomerUC) SearchMulti(ctx context.Context, fields []string, value string) []domain.Customer {
	seen := map[int]bool{}
	out := []domain.Customer{}
	for _, f := range fields {
		for _, c := range uc.Customers.Search(ctx, f, value) {
			if seen[c.ID()] {
				continue
			}
			seen[c.ID()] = true
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// QuoteDiscount previews the polymorphic discount for an amount.
func (uc *CustomerUC) QuoteDiscount(ctx context.Context, id int, amount float64) (float64, error) {
	c, err := uc.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return c.CalculateDiscount(amount), nil
}

func (uc *CustomerUC) AddPoints(ctx context.Context, id, points int) (domain.Customer, error) {
	c, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	std, ok := c.(*domain.Standard)
	if !ok {
		return nil, errors.New("el cliente no acumula puntos")
	}
	std.AddLoyaltyPoints(points)
	if !uc.Customers.Save(ctx, std) {
		return nil, errors.New("no se pudo guardar el cliente")
	}
	return std, nil
}

func (uc *CustomerUC) RedeemPoints(ctx context.Context, id, points int) (domain.Customer, error) {
	c, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	std, ok := c.(*domain.Standard)
	if !ok {
		return nil, errors.New("el cliente no acumula puntos")
	}
	if !std.RedeemPoints(points) {
		return nil, errors.New("puntos insuficientes")
	}
	if !uc.Customers.Save(ctx, std) {
		return nil, errors.New("no se pudo guardar el cliente")
	}
	return std, nil
}

func (uc *CustomerUC) AddBenefit(ctx context.Context, id int, benefit string) (domain.Customer, error) {
	if benefit == "" {
		return nil, errors.New("beneficio vacío")
	}
	c, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prem, ok := c.(*domain.Premium)
	if !ok {
		return nil, errors.New("el cliente no es premium")
	}
	prem.AddBenefit(benefit)
	if !uc.Customers.Save(ctx, prem) {
		return nil, errors.New("no se pudo guardar el cliente")
	}
	return prem, nil
}

func (uc *CustomerUC) UpdateBilling(ctx context.Context, id int, amount float64) (domain.Customer, error) {
	c, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	corp, ok := c.(*domain.Corporate)
	if !ok {
		return nil, errors.New("el cliente no es corporativo")
	}
	corp.UpdateBilling(amount)
	if !uc.Customers.Save(ctx, corp) {
		return nil, errors.New("no se pudo guardar el cliente")
	}
	return corp, nil
}

func (uc *CustomerUC) RecentLogs(ctx context.Context, limit int) []domain.LogEntry {
	return uc.Customers.RecentLogs(ctx, limit)
}
