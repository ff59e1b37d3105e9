// Package notify sends the welcome email over SMTP. Transport and failure
// reporting end here; the core only hands over name, email and the display
// label.
package notify

import (
	"bytes"
	"fmt"
	"net/smtp"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/solutiontech/gic/internal/domain"
)

type Mailer struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewFromEnv reads SMTP_HOST/SMTP_PORT/SMTP_USER/SMTP_PASS. An incomplete
// configuration is allowed: sends become warn-and-skip no-ops.
func NewFromEnv() *Mailer {
	m := &Mailer{
		host: os.Getenv("SMTP_HOST"),
		port: os.Getenv("SMTP_PORT"),
		user: os.Getenv("SMTP_USER"),
		pass: os.Getenv("SMTP_PASS"),
		from: os.Getenv("SMTP_FROM"),
	}
	if m.from == "" {
		m.from = m.user
	}
	return m
}

func (m *Mailer) configured() bool {
	return m.host != "" && m.port != "" && m.user != "" && m.pass != ""
}

// SendWelcome composes and sends the welcome message for a new customer.
func (m *Mailer) SendWelcome(c domain.Customer) error {
	if !m.configured() {
		log.Warn().Msg("SMTP no configurado, se omite email de bienvenida")
		return nil
	}
	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Subject: Bienvenido a SolutionTech, %s\r\n", c.Name())
	_, _ = fmt.Fprintf(&buf, "From: %s\r\n", m.from)
	_, _ = fmt.Fprintf(&buf, "To: %s\r\n", c.Email())
	buf.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	_, _ = fmt.Fprintf(&buf, "Estimado/a %s,\n\n", c.Name())
	buf.WriteString("Nos complace darle la bienvenida como nuestro nuevo cliente.\n\n")
	buf.WriteString("Detalles de su cuenta:\n")
	_, _ = fmt.Fprintf(&buf, "- Tipo de cliente: %s\n", c.Type())
	_, _ = fmt.Fprintf(&buf, "- Email registrado: %s\n", c.Email())
	_, _ = fmt.Fprintf(&buf, "- Fecha de registro: %s\n\n", time.Now().Format("02/01/2006"))
	buf.WriteString("Atentamente,\nEl equipo de SolutionTech\n")

	addr := m.host + ":" + m.port
	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	if err := smtp.SendMail(addr, auth, m.from, []string{c.Email()}, buf.Bytes()); err != nil {
		log.Error().Err(err).Str("email", c.Email()).Msg("enviar email de bienvenida")
		return err
	}
	return nil
}
