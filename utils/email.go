package utils

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"log"
	"storefront/config"
	"storefront/model"

	"gopkg.in/gomail.v2"
)

//go:embed templates/new_order.html
var mailTemplates embed.FS

var ErrMailNotConfigured = errors.New("smtp host is not configured")

// NewOrderMailData is the data passed to templates/new_order.html.
type NewOrderMailData struct {
	OrderCode    string
	CustomerName string
	PlacedAt     string
	Items        []model.OrderItem
	AmountText   string
	PaymentType  string
	Phone        string
	Address      string
	DetailLink   string
}

type Mailer struct {
	cfg      config.SMTP
	appURL   string
	currency string
	tmpl     *template.Template
	send     func(*gomail.Message) error
}

func NewMailer(cfg config.SMTP, appURL, currency string) *Mailer {
	m := &Mailer{
		cfg:      cfg,
		appURL:   appURL,
		currency: currency,
		tmpl:     template.Must(template.ParseFS(mailTemplates, "templates/new_order.html")),
	}
	m.send = m.dialAndSend
	return m
}

// WithSender replaces the SMTP transport.
func (m *Mailer) WithSender(send func(*gomail.Message) error) *Mailer {
	m.send = send
	return m
}

func (m *Mailer) dialAndSend(msg *gomail.Message) error {
	if m.cfg.Host == "" {
		return ErrMailNotConfigured
	}
	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	return d.DialAndSend(msg)
}

// SendNewOrderMail renders the order confirmation with an inline QR code and
// sends it, giving up when ctx is done.
func (m *Mailer) SendNewOrderMail(ctx context.Context, customer model.Customer, order model.Order) error {
	msg, err := m.buildNewOrderMessage(customer, order)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- m.send(msg)
	}()

	select {
	case err := <-done:
		if err == nil {
			log.Printf("Order mail sent to %s order=%s", customer.Email, order.PublicCode)
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mailer) buildNewOrderMessage(customer model.Customer, order model.Order) (*gomail.Message, error) {
	data := NewOrderMailData{
		OrderCode:    order.PublicCode,
		CustomerName: customer.DisplayName(),
		PlacedAt:     FormatDateTime(order.CreatedAt),
		Items:        order.Items,
		PaymentType:  order.PaymentType,
		Phone:        order.Phone,
		Address:      order.Address,
		DetailLink:   m.appURL + "/customer/orders",
	}
	if order.Amount > 0 {
		data.AmountText = FormatAmount(order.Amount, m.currency)
	}

	var body bytes.Buffer
	if err := m.tmpl.Execute(&body, data); err != nil {
		return nil, err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", customer.Email)
	msg.SetHeader("Subject", "Order placed - "+order.PublicCode)
	msg.SetBody("text/html", body.String())

	qrBytes, err := GenerateQRCode(order.PublicCode, 400)
	if err != nil {
		log.Printf("QR code failed for order=%s: %v", order.PublicCode, err)
		return msg, nil
	}
	msg.Embed("order_qr.png",
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(qrBytes)
			return err
		}),
		gomail.SetHeader(map[string][]string{
			"Content-Type":        {"image/png"},
			"Content-ID":          {"<order_qr_code>"},
			"Content-Disposition": {"inline"},
		}),
	)
	return msg, nil
}
