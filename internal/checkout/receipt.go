package checkout

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"

	"eden/internal/notify"
)

const receiptSubject = "Your EDEN Order Receipt"

var receiptText = template.Must(template.New("receipt.txt").Parse(`Thank you for your purchase!

Here is your order receipt:
{{range .Lines}}- {{.Title}} x {{.Quantity}} @ ₱{{.UnitPrice}} = ₱{{.LineTotal}}
{{end}}
Subtotal: ₱{{.Subtotal}}
Tax ({{.TaxPercent}}%): ₱{{.Tax}}
Total: ₱{{.Total}}

Thank you for trusting EDEN!
`))

var receiptHTML = htmltemplate.Must(htmltemplate.New("receipt.html").Parse(`<h2>Thank you for your purchase!</h2>
<p>Here is your order receipt:</p>
<ul>
{{- range .Lines}}
  <li>{{.Title}} &times; {{.Quantity}} &mdash; ₱{{.LineTotal}}</li>
{{- end}}
</ul>
<p><strong>Subtotal:</strong> ₱{{.Subtotal}}</p>
<p><strong>Tax ({{.TaxPercent}}%):</strong> ₱{{.Tax}}</p>
<p><strong>Total:</strong> ₱{{.Total}}</p>
<p>Thank you for trusting EDEN!</p>
`))

type receiptData struct {
	*Quote
	TaxPercent int
}

// Receipt renders the receipt email for q.
func Receipt(to string, q *Quote) (notify.Message, error) {
	data := receiptData{Quote: q, TaxPercent: TaxPercent}
	var text, html bytes.Buffer
	if err := receiptText.Execute(&text, data); err != nil {
		return notify.Message{}, err
	}
	if err := receiptHTML.Execute(&html, data); err != nil {
		return notify.Message{}, err
	}
	return notify.Message{To: to, Subject: receiptSubject, Text: text.String(), HTML: html.String()}, nil
}
