package notify

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"

	"github.com/pkg/errors"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers messages through a relay, with PLAIN auth when a username is configured
type SMTPMailer struct {
	conf     SMTPConfig
	sendMail sendMailFunc
}

func NewSMTPMailer(conf SMTPConfig) *SMTPMailer {
	return &SMTPMailer{conf: conf, sendMail: smtp.SendMail}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "sending mail")
	}

	var auth smtp.Auth
	if m.conf.Username != "" {
		auth = smtp.PlainAuth("", m.conf.Username, m.conf.Password, m.conf.Host)
	}

	addr := net.JoinHostPort(m.conf.Host, strconv.Itoa(m.conf.Port))

	if err := m.sendMail(addr, auth, msg.From, []string{msg.To}, encode(msg)); err != nil {
		return errors.Wrapf(err, "delivering mail through %s", addr)
	}

	return nil
}

func encode(msg Message) []byte {
	buf := &bytes.Buffer{}

	fmt.Fprintf(buf, "From: %s\r\n", msg.From)
	fmt.Fprintf(buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(msg.HTML)

	return buf.Bytes()
}
