package email

import (
	"context"
	"errors"
	"html"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/baechuer/gig-tickets/internal/domain"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	Insecure bool
}

type SMTPSender struct {
	cfg SMTPConfig
	lg  zerolog.Logger
}

func NewSMTPSender(cfg SMTPConfig, lg zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		cfg: cfg,
		lg:  lg.With().Str("component", "smtp_sender").Logger(),
	}
}

func (s *SMTPSender) Send(ctx context.Context, em domain.EmailMessage) error {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	m, err := s.buildMsg(em)
	if err != nil {
		return err
	}

	c, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return PermanentError{msg: "smtp client init failed: " + err.Error()}
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		s.lg.Error().Err(err).Str("to", em.To).Msg("smtp send failed")
		return classifySendError(err)
	}

	s.lg.Debug().Str("to", em.To).Str("subject", em.Subject).Msg("smtp send ok")
	return nil
}

func (s *SMTPSender) buildMsg(em domain.EmailMessage) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, PermanentError{msg: "invalid from address: " + err.Error()}
	}
	if err := m.To(em.To); err != nil {
		return nil, PermanentError{msg: "invalid to address: " + err.Error()}
	}
	m.Subject(em.Subject)
	m.SetBodyString(mail.TypeTextPlain, em.Text)
	m.AddAlternativeString(mail.TypeTextHTML, renderHTML(em.Subject, em.Text))
	return m, nil
}

func (s *SMTPSender) clientOptions() []mail.Option {
	tlsPolicy := mail.TLSMandatory
	if s.cfg.Insecure {
		tlsPolicy = mail.TLSOpportunistic
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(tlsPolicy),
	}
	if s.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.cfg.Timeout))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

// classifySendError maps SMTP replies to retry semantics. Only a 5xx reply
// from the server is permanent; dial, TLS and 4xx failures stay temporary.
func classifySendError(err error) error {
	if replyCode(err) >= 500 {
		return PermanentError{msg: "smtp rejected: " + err.Error()}
	}
	return TemporaryError{msg: "smtp transient failure: " + err.Error()}
}

func replyCode(err error) int {
	var se *mail.SendError
	if errors.As(err, &se) && !se.IsTemp() && se.ErrorCode() > 0 {
		return se.ErrorCode()
	}
	var tp *textproto.Error
	if errors.As(err, &tp) {
		return tp.Code
	}
	return 0
}

// renderHTML wraps the plain-text body for clients that prefer HTML.
func renderHTML(title, text string) string {
	var paras []string
	for _, p := range strings.Split(strings.TrimSpace(text), "\n\n") {
		paras = append(paras, "<p>"+strings.ReplaceAll(html.EscapeString(p), "\n", "<br/>")+"</p>")
	}
	return `<!doctype html>
<html>
  <body style="font-family:Arial,Helvetica,sans-serif; line-height:1.4;">
    <h2>` + html.EscapeString(title) + `</h2>
    ` + strings.Join(paras, "\n    ") + `
  </body>
</html>`
}
