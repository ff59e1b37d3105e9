package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Tier is the Premium membership level. Input is case-insensitive and
// stored lower-cased.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierBronze:
		return TierBronze, nil
	case TierGold:
		return TierGold, nil
	case TierPlatinum:
		return TierPlatinum, nil
	}
	return "", errors.New("el nivel debe ser uno de: bronze, gold, platinum")
}

// Premium customers get a tier-indexed discount and accumulate named extra
// benefits.
type Premium struct {
	base
	tier     Tier
	benefits []string
}

func NewPremium(id int, name, email, phone, address, taxID, tier string, registeredAt time.Time) (*Premium, error) {
	b, err := newBase(id, name, email, phone, address, taxID, registeredAt)
	if err != nil {
		return nil, err
	}
	t, err := ParseTier(tier)
	if err != nil {
		return nil, err
	}
	return &Premium{base: b, tier: t}, nil
}

var tierDiscounts = map[Tier]float64{
	TierGold:     0.10,
	TierBronze:   0.15,
	TierPlatinum: 0.20,
}

func (p *Premium) CalculateDiscount(amount float64) float64 {
	return amount * tierDiscounts[p.tier]
}

func (p *Premium) Type() string { return fmt.Sprintf("Premium (%s)", p.tier) }
func (p *Premium) Kind() Kind   { return KindPremium }

func (p *Premium) Tier() Tier { return p.tier }

// AddBenefit is idempotent: a benefit already present is not added again.
func (p *Premium) AddBenefit(benefit string) {
	for _, b := range p.benefits {
		if b == benefit {
			return
		}
	}
	p.benefits = append(p.benefits, benefit)
}

// Benefits returns a snapshot in insertion order; mutating the returned
// slice does not touch the customer.
func (p *Premium) Benefits() []string {
	out := make([]string, len(p.benefits))
	copy(out, p.benefits)
	return out
}

func (p *Premium) Info() map[string]any { return p.info(p.Type()) }

func (p *Premium) ExtraFields() map[string]any {
	return map[string]any{
		"tier":           string(p.tier),
		"extra_benefits": p.Benefits(),
	}
}

func (p *Premium) sealed() {}
