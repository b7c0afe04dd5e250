package email

import (
	"bytes"
	htmltemplate "html/template"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"
)

// LineItem is one order line in a rendered email.
type LineItem struct {
	Name     string
	Quantity int
	Price    float64
}

// OrderSummary carries the order fields the order templates render.
type OrderSummary struct {
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	Items         []LineItem
	Subtotal      float64
	ShippingCost  float64
	Tax           float64
	Total         float64
	PlacedAt      time.Time
	DashboardURL  string
}

// Rendered is the subject and bodies produced by a template.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

type mailTemplate struct {
	subject *texttemplate.Template
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

var funcs = map[string]any{
	"money": formatMoney,
	"date":  func(t time.Time) string { return t.UTC().Format("Jan 2, 2006 15:04 MST") },
}

func mustTemplate(name, subject, html, text string) mailTemplate {
	return mailTemplate{
		subject: texttemplate.Must(texttemplate.New(name + ".subject").Parse(subject)),
		html:    htmltemplate.Must(htmltemplate.New(name + ".html").Funcs(funcs).Parse(html)),
		text:    texttemplate.Must(texttemplate.New(name + ".text").Funcs(funcs).Parse(text)),
	}
}

func (t mailTemplate) render(data any) (Rendered, error) {
	var subject, html, text bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return Rendered{}, err
	}
	if err := t.html.Execute(&html, data); err != nil {
		return Rendered{}, err
	}
	if err := t.text.Execute(&text, data); err != nil {
		return Rendered{}, err
	}
	return Rendered{
		Subject: strings.TrimSpace(subject.String()),
		HTML:    strings.TrimSpace(html.String()),
		Text:    strings.TrimSpace(text.String()),
	}, nil
}

var orderConfirmationTemplate = mustTemplate("order_confirmation",
	`Order Confirmation - Order #{{.OrderNumber}}`,
	`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Order Confirmation</h1>
  <p>Hi {{.CustomerName}}, thank you for your order #{{.OrderNumber}}.</p>
  <table style="width: 100%; border-collapse: collapse;">
    {{range .Items}}<tr><td>{{.Name}}</td><td>x{{.Quantity}}</td><td>${{money .Price}}</td></tr>
    {{end}}
  </table>
  <p>Subtotal: ${{money .Subtotal}}<br>Shipping: ${{money .ShippingCost}}<br>Tax: ${{money .Tax}}</p>
  <p><strong>Total: ${{money .Total}}</strong></p>
</div>`,
	`Order Confirmation
Order #{{.OrderNumber}}

{{range .Items}}- {{.Name}} x{{.Quantity}} ${{money .Price}}
{{end}}
Subtotal: ${{money .Subtotal}}
Shipping: ${{money .ShippingCost}}
Tax: ${{money .Tax}}
Total: ${{money .Total}}`,
)

var shippingUpdateTemplate = mustTemplate("shipping_update",
	`Shipping Update - Order #{{.OrderNumber}}`,
	`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Shipping Update</h1>
  <p>Your order #{{.OrderNumber}} has shipped.</p>
  <p>Tracking number: <strong>{{.TrackingNumber}}</strong></p>
</div>`,
	`Shipping Update
Order #{{.OrderNumber}}
Tracking: {{.TrackingNumber}}`,
)

var passwordResetTemplate = mustTemplate("password_reset",
	`Password Reset Request`,
	`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Password Reset</h1>
  <p>Use the link below to choose a new password. If you did not request this, ignore this email.</p>
  <p><a href="{{.ResetURL}}">Reset your password</a></p>
</div>`,
	`Password Reset
Open the link below to choose a new password:
{{.ResetURL}}`,
)

var adminOrderTemplate = mustTemplate("admin_order",
	`New Order Placed: #{{.OrderNumber}}`,
	`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #4CAF50;">New Order Notification</h2>
  <p>A new order has been placed on your store.</p>
  <div style="background-color: #f9f9f9; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <h3 style="margin-top: 0;">Order Details:</h3>
    <p><strong>Order Number:</strong> {{.OrderNumber}}</p>
    <p><strong>Customer:</strong> {{.CustomerName}}</p>
    <p><strong>Email:</strong> {{if .CustomerEmail}}{{.CustomerEmail}}{{else}}N/A{{end}}</p>
    <p><strong>Total Amount:</strong> ${{money .Total}}</p>
    <p><strong>Date:</strong> {{date .PlacedAt}}</p>
  </div>
  <p>Please <a href="{{.DashboardURL}}">login to the admin dashboard</a> to view the complete order details.</p>
</div>`,
	`A new order has been placed on your store.

Order Details:
- Order Number: {{.OrderNumber}}
- Customer: {{.CustomerName}}
- Email: {{if .CustomerEmail}}{{.CustomerEmail}}{{else}}N/A{{end}}
- Total Amount: ${{money .Total}}
- Date: {{date .PlacedAt}}

Please login to the admin dashboard to view the complete order details.`,
)

// RenderOrderConfirmation renders the customer order confirmation.
func RenderOrderConfirmation(s OrderSummary) (Rendered, error) {
	return orderConfirmationTemplate.render(s)
}

// RenderShippingUpdate renders the customer shipping notice.
func RenderShippingUpdate(orderNumber, trackingNumber string) (Rendered, error) {
	return shippingUpdateTemplate.render(struct{ OrderNumber, TrackingNumber string }{orderNumber, trackingNumber})
}

// RenderPasswordReset renders a reset link email.
func RenderPasswordReset(resetURL string) (Rendered, error) {
	return passwordResetTemplate.render(struct{ ResetURL string }{resetURL})
}

// RenderAdminOrder renders the new order alert sent to the store admin.
func RenderAdminOrder(s OrderSummary) (Rendered, error) {
	return adminOrderTemplate.render(s)
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
