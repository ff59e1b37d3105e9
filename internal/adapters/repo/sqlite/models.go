package sqlite

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/solutiontech/gic/internal/domain"
)

// CustomerRecord is the row shape for the customers table. Base fields map
// to fixed columns; everything variant-specific, tax id included, travels
// in the specific_data JSON blob. Kind is the closed discriminant the
// decoder dispatches on; Type only keeps the display label.
type CustomerRecord struct {
	ID           int    `gorm:"primaryKey"`
	Kind         string `gorm:"size:20;index"`
	Type         string `gorm:"size:60"`
	Name         string `gorm:"size:140"`
	Email        string `gorm:"size:140;uniqueIndex"`
	Phone        string `gorm:"size:60"`
	Address      string `gorm:"size:255"`
	RegisteredAt time.Time
	Active       bool
	SpecificData string `gorm:"type:text"`
}

func (CustomerRecord) TableName() string { return "customers" }

// AuditLog is one row of the append-only logs table.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Timestamp time.Time `gorm:"index"`
	Action    string    `gorm:"size:60"`
	Details   string    `gorm:"type:text"`
	User      string    `gorm:"size:60"`
}

func (AuditLog) TableName() string { return "logs" }

type specificData struct {
	TaxID            string   `json:"tax_id"`
	LoyaltyPoints    *int     `json:"loyalty_points,omitempty"`
	Tier             string   `json:"tier,omitempty"`
	ExtraBenefits    []string `json:"extra_benefits,omitempty"`
	CompanyName      string   `json:"company_name,omitempty"`
	AlternateContact string   `json:"alternate_contact,omitempty"`
	MonthlyBilling   *float64 `json:"monthly_billing,omitempty"`
}

// encode maps an entity to its row, serializing the variant-specific
// fields plus the tax id into the blob.
func encode(c domain.Customer) (CustomerRecord, error) {
	sd := specificData{TaxID: c.TaxID()}
	switch v := c.(type) {
	case *domain.Standard:
		pts := v.LoyaltyPoints()
		sd.LoyaltyPoints = &pts
	case *domain.Premium:
		sd.Tier = string(v.Tier())
		sd.ExtraBenefits = v.Benefits()
	case *domain.Corporate:
		sd.CompanyName = v.CompanyName()
		sd.AlternateContact = v.AlternateContact()
		billing := v.MonthlyBilling()
		sd.MonthlyBilling = &billing
	default:
		return CustomerRecord{}, errors.New("variante de cliente desconocida")
	}
	raw, err := json.Marshal(sd)
	if err != nil {
		return CustomerRecord{}, err
	}
	return CustomerRecord{
		ID:           c.ID(),
		Kind:         string(c.Kind()),
		Type:         c.Type(),
		Name:         c.Name(),
		Email:        c.Email(),
		Phone:        c.Phone(),
		Address:      c.Address(),
		RegisteredAt: c.RegisteredAt(),
		Active:       c.Active(),
		SpecificData: string(raw),
	}, nil
}

// decoders is the kind-keyed reconstruction table. Premium replays stored
// benefits through AddBenefit and Corporate replays billing through
// UpdateBilling so the variant invariants re-run on the way in.
var decoders = map[domain.Kind]func(rec CustomerRecord, sd specificData) (domain.Customer, error){
	domain.KindStandard: func(rec CustomerRecord, sd specificData) (domain.Customer, error) {
		points := 0
		if sd.LoyaltyPoints != nil {
			points = *sd.LoyaltyPoints
		}
		return domain.NewStandard(rec.ID, rec.Name, rec.Email, rec.Phone, rec.Address, sd.TaxID, points, rec.RegisteredAt)
	},
	domain.KindPremium: func(rec CustomerRecord, sd specificData) (domain.Customer, error) {
		tier := sd.Tier
		if tier == "" {
			tier = string(domain.TierGold)
		}
		p, err := domain.NewPremium(rec.ID, rec.Name, rec.Email, rec.Phone, rec.Address, sd.TaxID, tier, rec.RegisteredAt)
		if err != nil {
			return nil, err
		}
		for _, b := range sd.ExtraBenefits {
			p.AddBenefit(b)
		}
		return p, nil
	},
	domain.KindCorporate: func(rec CustomerRecord, sd specificData) (domain.Customer, error) {
		c, err := domain.NewCorporate(rec.ID, rec.Name, rec.Email, rec.Phone, rec.Address, sd.TaxID, sd.CompanyName, sd.AlternateContact, rec.RegisteredAt)
		if err != nil {
			return nil, err
		}
		if sd.MonthlyBilling != nil {
			c.UpdateBilling(*sd.MonthlyBilling)
		}
		return c, nil
	},
}

func decode(rec CustomerRecord) (domain.Customer, error) {
	kind, err := domain.ParseKind(rec.Kind)
	if err != nil {
		return nil, err
	}
	var sd specificData
	if rec.SpecificData != "" {
		if err := json.Unmarshal([]byte(rec.SpecificData), &sd); err != nil {
			return nil, err
		}
	}
	dec := decoders[kind]
	c, err := dec(rec, sd)
	if err != nil {
		return nil, err
	}
	c.SetActive(rec.Active)
	return c, nil
}
