package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var ErrNotFound = errors.New("no encontrado")

// Kind is the closed discriminant for the three customer variants. It is
// what persistence stores and decodes; display labels never participate in
// reconstruction.
type Kind string

const (
	KindStandard  Kind = "standard"
	KindPremium   Kind = "premium"
	KindCorporate Kind = "corporate"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindStandard:
		return KindStandard, nil
	case KindPremium:
		return KindPremium, nil
	case KindCorporate:
		return KindCorporate, nil
	}
	return "", errors.New("tipo de cliente desconocido: " + s)
}

// Customer is the sealed entity contract. Only Standard, Premium and
// Corporate implement it; an instance is never observable in an invalid
// state because every constructor and setter re-runs the field validators.
type Customer interface {
	ID() int
	Name() string
	SetName(string) error
	Email() string
	SetEmail(string) error
	Phone() string
	SetPhone(string) error
	Address() string
	SetAddress(string) error
	TaxID() string
	SetTaxID(string) error
	RegisteredAt() time.Time
	Active() bool
	SetActive(bool)

	// CalculateDiscount returns the discount (not the discounted price)
	// for the given amount. Pure: no mutation, no I/O.
	CalculateDiscount(amount float64) float64
	// Type is the display label, e.g. "Premium (gold)".
	Type() string
	Kind() Kind
	// Info flattens the base fields for export and display collaborators.
	Info() map[string]any
	// ExtraFields exposes the variant-specific fields as a uniform mapping
	// so callers never probe for attribute presence.
	ExtraFields() map[string]any
	Equals(Customer) bool

	sealed()
}

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var phoneSepReplacer = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// base carries the fields and validation shared by every variant.
type base struct {
	id           int
	name         string
	email        string
	phone        string
	address      string
	taxID        string
	registeredAt time.Time
	active       bool
}

// newBase validates every field and fails whole, never leaving a partial
// entity behind. A zero registeredAt defaults to now.
func newBase(id int, name, email, phone, address, taxID string, registeredAt time.Time) (base, error) {
	b := base{active: true}
	if id <= 0 {
		return base{}, errors.New("el ID debe ser un entero positivo")
	}
	b.id = id
	if err := b.SetName(name); err != nil {
		return base{}, err
	}
	if err := b.SetEmail(email); err != nil {
		return base{}, err
	}
	if err := b.SetPhone(phone); err != nil {
		return base{}, err
	}
	if err := b.SetAddress(address); err != nil {
		return base{}, err
	}
	if err := b.SetTaxID(taxID); err != nil {
		return base{}, err
	}
	if registeredAt.IsZero() {
		registeredAt = time.Now()
	}
	b.registeredAt = registeredAt
	return b, nil
}

func (b *base) ID() int      { return b.id }
func (b *base) Name() string { return b.name }

func (b *base) SetName(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return errors.New("el nombre no puede estar vacío")
	}
	if len([]rune(v)) < 2 {
		return errors.New("el nombre debe tener al menos 2 caracteres")
	}
	b.name = v
	return nil
}

func (b *base) Email() string { return b.email }

func (b *base) SetEmail(v string) error {
	if !emailRe.MatchString(v) {
		return errors.New("formato de email inválido")
	}
	b.email = v
	return nil
}

func (b *base) Phone() string { return b.phone }

// SetPhone normalizes before validating: spaces, dashes and parentheses are
// stripped, the rest must be 8 to 15 digits.
func (b *base) SetPhone(v string) error {
	clean := phoneSepReplacer.Replace(v)
	for _, r := range clean {
		if r < '0' || r > '9' {
			return errors.New("el teléfono debe contener solo dígitos")
		}
	}
	if len(clean) < 8 || len(clean) > 15 {
		return errors.New("el teléfono debe tener entre 8 y 15 dígitos")
	}
	b.phone = clean
	return nil
}

func (b *base) Address() string { return b.address }

func (b *base) SetAddress(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return errors.New("la dirección no puede estar vacía")
	}
	b.address = v
	return nil
}

func (b *base) TaxID() string { return b.taxID }

func (b *base) SetTaxID(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return errors.New("el identificador fiscal no puede estar vacío")
	}
	b.taxID = v
	return nil
}

func (b *base) RegisteredAt() time.Time { return b.registeredAt }
func (b *base) Active() bool            { return b.active }
func (b *base) SetActive(v bool)        { b.active = v }

// Equals compares by id alone; two customers with the same id are the same
// record no matter what else differs.
func (b *base) Equals(o Customer) bool {
	return o != nil && b.id == o.ID()
}

func (b *base) info(typ string) map[string]any {
	return map[string]any{
		"id":            b.id,
		"name":          b.name,
		"email":         b.email,
		"phone":         b.phone,
		"address":       b.address,
		"tax_id":        b.taxID,
		"type":          typ,
		"registered_at": b.registeredAt,
		"active":        b.active,
	}
}
