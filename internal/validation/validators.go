// Package validation holds the pure format and check-digit validators for
// external identifiers. Every function returns the verdict together with a
// human-readable reason, valid or not.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
var doubleDotRe = regexp.MustCompile(`[.]{2,}`)

// ValidateEmail applies the format regex plus the RFC-ish length and dot
// rules: total length 254, local part 64, no leading/trailing/consecutive
// dots in the local part, domain not starting or ending with a dot.
func ValidateEmail(email string) (bool, string) {
	if !emailRe.MatchString(email) {
		return false, "formato de email inválido"
	}
	if len(email) > 254 {
		return false, "email demasiado largo"
	}
	at := strings.LastIndex(email, "@")
	local, dom := email[:at], email[at+1:]
	if len(local) > 64 {
		return false, "parte local del email demasiado larga"
	}
	if strings.HasPrefix(dom, ".") || strings.HasSuffix(dom, ".") {
		return false, "dominio inválido"
	}
	if doubleDotRe.MatchString(local) {
		return false, "puntos consecutivos no permitidos"
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return false, "la parte local no puede empezar o terminar con punto"
	}
	return true, "email válido"
}

// ValidatePhone tries a region-aware parse first and, when the number is
// valid, returns it in international format. On a parse failure it degrades
// to the lenient check: strip everything but digits and '+', require 8 to
// 15 characters and a leading '+'. Best effort, not authoritative.
func ValidatePhone(phone, region string) (bool, string) {
	if num, err := phonenumbers.Parse(phone, region); err == nil {
		if !phonenumbers.IsValidNumber(num) {
			return false, "número de teléfono inválido"
		}
		if !phonenumbers.IsPossibleNumber(num) {
			return false, "número de teléfono imposible"
		}
		return true, phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
	}

	var clean strings.Builder
	for _, r := range phone {
		if r == '+' || unicode.IsDigit(r) {
			clean.WriteRune(r)
		}
	}
	c := clean.String()
	if len(c) < 8 {
		return false, "teléfono demasiado corto"
	}
	if len(c) > 15 {
		return false, "teléfono demasiado largo"
	}
	if !strings.HasPrefix(c, "+") {
		return false, "formato internacional requerido (+)"
	}
	return true, c
}

// nitWeights is the Colombian DIAN weight cycle, applied to the NIT body
// from the least-significant digit.
var nitWeights = []int{3, 7, 13, 17, 19, 23, 29, 37, 41, 43, 47, 53}

// ValidateTaxID checks a tax or identity number with the country's
// check-digit algorithm. "CO" runs the weighted Modulo-11 NIT check, "CL"
// the RUT variant (multipliers 2..7 with a 0/K verifier); any other country
// only gets the basic digits-and-length screen.
func ValidateTaxID(taxID, country string) (bool, string) {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "CO":
		return validateNIT(taxID)
	case "CL":
		return validateRUT(taxID)
	}
	clean := digitsOnly(taxID)
	if len(clean) < 5 {
		return false, "identificador fiscal demasiado corto"
	}
	return true, fmt.Sprintf("identificador fiscal válido: %s", clean)
}

func validateNIT(nit string) (bool, string) {
	clean := digitsOnly(nit)
	if len(clean) < 8 || len(clean) > 12 {
		return false, "el NIT colombiano debe tener 8-12 dígitos"
	}
	body := clean[:len(clean)-1]
	supplied := int(clean[len(clean)-1] - '0')

	sum := 0
	for i := 0; i < len(body); i++ {
		d := int(body[len(body)-1-i] - '0')
		sum += d * nitWeights[i%len(nitWeights)]
	}
	r := sum % 11
	want := r
	if r >= 2 {
		want = 11 - r
	}
	if want != supplied {
		return false, "dígito verificador inválido"
	}
	return true, fmt.Sprintf("NIT válido: %s", clean)
}

func validateRUT(rut string) (bool, string) {
	// Keep digits and the verifier K only; dots and the dash are format.
	var clean strings.Builder
	for _, r := range strings.ToUpper(rut) {
		if (r >= '0' && r <= '9') || r == 'K' {
			clean.WriteRune(r)
		}
	}
	c := clean.String()
	if len(c) < 8 || len(c) > 9 {
		return false, "el RUT chileno debe tener 7-8 dígitos más verificador"
	}
	body := c[:len(c)-1]
	supplied := c[len(c)-1:]
	if strings.ContainsRune(body, 'K') {
		return false, "el cuerpo del RUT debe contener solo números"
	}

	sum := 0
	mult := 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * mult
		mult++
		if mult > 7 {
			mult = 2
		}
	}
	var want string
	switch r := 11 - sum%11; r {
	case 11:
		want = "0"
	case 10:
		want = "K"
	default:
		want = fmt.Sprintf("%d", r)
	}
	if want != supplied {
		return false, "dígito verificador inválido"
	}
	return true, fmt.Sprintf("RUT válido: %s-%s", body, supplied)
}

// ValidateAddress bounds the length to [10,200] and requires at least two
// tokens. A missing street number is only flagged in the message, never a
// failure.
func ValidateAddress(address string) (bool, string) {
	clean := strings.TrimSpace(address)
	if len(clean) < 10 {
		return false, "dirección demasiado corta"
	}
	if len(clean) > 200 {
		return false, "dirección demasiado larga"
	}
	if len(strings.Fields(clean)) < 2 {
		return false, "dirección incompleta"
	}
	if !strings.ContainsFunc(clean, unicode.IsDigit) {
		return true, "dirección válida (advertencia: sin número)"
	}
	return true, "dirección válida"
}

// ValidateBirthDate parses dateStr with the given layout and checks the age
// as of now against [minAge, 120].
func ValidateBirthDate(dateStr, layout string, minAge int) (bool, string) {
	date, err := time.Parse(layout, dateStr)
	if err != nil {
		return false, fmt.Sprintf("formato de fecha inválido, use: %s", layout)
	}
	now := time.Now()
	age := now.Year() - date.Year()
	if now.Month() < date.Month() || (now.Month() == date.Month() && now.Day() < date.Day()) {
		age--
	}
	if age < minAge {
		return false, fmt.Sprintf("edad mínima requerida: %d años", minAge)
	}
	if age > 120 {
		return false, "fecha de nacimiento inválida"
	}
	return true, fmt.Sprintf("fecha válida, edad: %d años", age)
}

// digitsOnly keeps ASCII digits only; anything else, non-ASCII digit runes
// included, would break the byte-wise checksum arithmetic.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
