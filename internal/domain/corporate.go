package domain

import (
	"errors"
	"strings"
	"time"
)

// Corporate customers belong to a company and earn a volume bonus on top of
// the 15% base discount as their monthly billing grows.
type Corporate struct {
	base
	companyName      string
	alternateContact string
	monthlyBilling   float64
}

func NewCorporate(id int, name, email, phone, address, taxID, companyName, alternateContact string, registeredAt time.Time) (*Corporate, error) {
	b, err := newBase(id, name, email, phone, address, taxID, registeredAt)
	if err != nil {
		return nil, err
	}
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return nil, errors.New("el nombre de la empresa no puede estar vacío")
	}
	return &Corporate{base: b, companyName: companyName, alternateContact: alternateContact}, nil
}

func (c *Corporate) CalculateDiscount(amount float64) float64 {
	discount := 0.15
	switch {
	case c.monthlyBilling > 10000:
		discount += 0.05
	case c.monthlyBilling > 5000:
		discount += 0.03
	}
	return amount * discount
}

func (c *Corporate) Type() string { return "Corporate" }
func (c *Corporate) Kind() Kind   { return KindCorporate }

func (c *Corporate) CompanyName() string      { return c.companyName }
func (c *Corporate) AlternateContact() string { return c.alternateContact }
func (c *Corporate) MonthlyBilling() float64  { return c.monthlyBilling }

// UpdateBilling replaces the monthly billing figure; negative amounts are
// ignored.
func (c *Corporate) UpdateBilling(amount float64) {
	if amount >= 0 {
		c.monthlyBilling = amount
	}
}

func (c *Corporate) Info() map[string]any { return c.info(c.Type()) }

func (c *Corporate) ExtraFields() map[string]any {
	return map[string]any{
		"company_name":      c.companyName,
		"alternate_contact": c.alternateContact,
		"monthly_billing":   c.monthlyBilling,
	}
}

func (c *Corporate) sealed() {}
