package domain

import "time"

// Standard is the base-tier customer: flat 5% discount plus a loyalty
// points balance.
type Standard struct {
	base
	points int
}

func NewStandard(id int, name, email, phone, address, taxID string, points int, registeredAt time.Time) (*Standard, error) {
	b, err := newBase(id, name, email, phone, address, taxID, registeredAt)
	if err != nil {
		return nil, err
	}
	if points < 0 {
		points = 0
	}
	return &Standard{base: b, points: points}, nil
}

func (s *Standard) CalculateDiscount(amount float64) float64 { return amount * 0.05 }

func (s *Standard) Type() string { return "Standard" }
func (s *Standard) Kind() Kind   { return KindStandard }

func (s *Standard) LoyaltyPoints() int { return s.points }

// AddLoyaltyPoints ignores non-positive amounts.
func (s *Standard) AddLoyaltyPoints(n int) {
	if n > 0 {
		s.points += n
	}
}

// RedeemPoints spends n points. It reports false and leaves the balance
// untouched when n exceeds it.
func (s *Standard) RedeemPoints(n int) bool {
	if n > s.points {
		return false
	}
	s.points -= n
	return true
}

func (s *Standard) Info() map[string]any { return s.info(s.Type()) }

func (s *Standard) ExtraFields() map[string]any {
	return map[string]any{"loyalty_points": s.points}
}

func (s *Standard) sealed() {}
