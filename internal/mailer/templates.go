package mailer

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var thaiPrinter = message.NewPrinter(language.Thai)

// FormatTHB renders an amount as Thai baht with digit grouping, e.g. ฿1,290.00.
func FormatTHB(amount decimal.Decimal) string {
	return thaiPrinter.Sprintf("฿%.2f", amount.Round(2).InexactFloat64())
}

var funcs = map[string]any{
	"thb": FormatTHB,
	"dash": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "-"
		}
		return s
	},
}

type orderReceivedView struct {
	OrderReceived
	Link string
}

var orderReceivedHTML = htmltemplate.Must(htmltemplate.New("order_received.html").Funcs(funcs).Parse(`
<div style="font-family:Inter,Arial,Helvetica,sans-serif;max-width:680px;margin:0 auto;padding:24px;background:#fff;">
  <h2 style="margin:0 0 8px;">🩰🎨 Thank you for shopping with Wishyoulucky's! 🌷🌟</h2>
  <p style="margin:0 0 16px;color:#333;">💖 ขอบพระคุณที่ไว้วางใจสั่งสินค้ากับทางร้านนะคะ 💖</p>

  <div style="border:1px solid #eee;border-radius:12px;padding:16px;margin-top:12px;">
    <h3 style="margin:0 0 8px;">📋 สรุปรายการสั่งซื้อของคุณ</h3>
    <p style="margin:0 0 8px;"><strong>Order ID:</strong> #{{.OrderNumber}}</p>

    <table style="width:100%;border-collapse:collapse;margin:8px 0;">
      <thead>
        <tr>
          <th style="text-align:left;padding-bottom:8px;border-bottom:1px solid #eee;">สินค้า</th>
          <th style="text-align:right;padding-bottom:8px;border-bottom:1px solid #eee;">ยอด</th>
        </tr>
      </thead>
      <tbody>
{{- range .Items}}
        <tr>
          <td style="padding:8px 0;">
            <div style="display:flex;gap:10px;align-items:center;">
              {{with .Picture}}<img src="{{.}}" width="56" height="56" style="border-radius:8px;object-fit:cover;border:1px solid #eee;" />{{end}}
              <div>
                <div style="font-weight:600;">{{.Name}}</div>
                <div style="font-size:12px;color:#555;">จำนวน: {{.Quantity}}{{if .SKU}} • SKU: {{.SKU}}{{end}}</div>
              </div>
            </div>
          </td>
          <td style="text-align:right;font-weight:600;">{{if .Price.IsPositive}}{{thb .LineTotal}}{{else}}-{{end}}</td>
        </tr>
{{- end}}
        <tr><td style="padding-top:8px;border-top:1px dashed #ddd;">รวมทั้งสิ้น</td><td style="text-align:right;padding-top:8px;border-top:1px dashed #ddd;font-weight:700;">{{thb .TotalPrice}}</td></tr>
      </tbody>
    </table>

    <p style="margin:12px 0 4px;"><strong>รูปแบบการชำระเงิน:</strong> {{.PaymentKind}}</p>
    <p style="margin:4px 0;"><strong>ยอดชำระแล้ว:</strong> {{thb .PaidAmount}}</p>
    <p style="margin:4px 0;"><strong>ยอดที่เหลือ:</strong> {{thb .Balance}}</p>
    <p style="margin:4px 0 12px;"><strong>ช่องทางการชำระเงิน:</strong> {{.PaymentChannel}}</p>

    <div style="padding:12px;background:#faf5ff;border:1px solid #eee;border-radius:10px;margin-top:8px;">
      <div style="font-weight:600;margin-bottom:6px;">ที่อยู่จัดส่ง</div>
      <div>{{.Customer.Name}}</div>
      <div style="white-space:pre-line">{{.Customer.Address}}</div>
      <div>โทร: {{.Customer.Phone}}</div>
      {{if .Customer.Note}}<div style="margin-top:6px;"><strong>หมายเหตุจากลูกค้า:</strong> {{.Customer.Note}}</div>{{end}}
    </div>

    <div style="text-align:center;margin-top:16px;">
      <a href="{{.Link}}" style="display:inline-block;background:#8b5cf6;color:#fff;text-decoration:none;padding:10px 16px;border-radius:10px;font-weight:600;">
        👉 คลิกที่นี่เพื่อดูรายละเอียดออเดอร์ของคุณ
      </a>
    </div>

    <div style="margin-top:16px;color:#333;">
      <p style="margin:0 0 6px;">ทางร้านจะทำการตรวจสอบยอดและยืนยันออเดอร์ของคุณภายใน 24 ชั่วโมง ค่ะ</p>
      <ul style="margin:0 0 8px 18px;padding:0;">
        <li>✨ สินค้า Pre-Order / Pre-Sale → สถานะจะเปลี่ยนเป็น “รอโรงงานจัดส่งทันที”</li>
        <li>📦 สินค้าพร้อมส่ง → สถานะจะเปลี่ยนเป็น “จัดส่งแล้ว” พร้อมเลข Tracking</li>
      </ul>
      <p style="margin:0;">อีเมลนี้สำหรับแจ้งข้อมูลและอัปเดตเท่านั้น หากมีคำถามเพิ่มเติมสามารถติดต่อเพจ Wishyoulucky's Shop</p>
    </div>
  </div>

  <p style="margin-top:16px;color:#666;">ขอบคุณที่ไว้วางใจเราเสมอค่ะ 💖</p>
  <p style="color:#666;margin:0;">Wishyoulucky's Shop</p>
</div>`))

var orderReceivedText = texttemplate.Must(texttemplate.New("order_received.txt").Funcs(funcs).Parse(
	`ขอบพระคุณที่สั่งซื้อกับ Wishyoulucky's Shop
Order #{{.OrderNumber}}
ยอดรวม: {{thb .TotalPrice}}
ยอดชำระแล้ว: {{thb .PaidAmount}}  คงเหลือ: {{thb .Balance}}
ช่องทางชำระเงิน: {{.PaymentChannel}}
ที่อยู่จัดส่ง: {{.Customer.Name}} / {{.Customer.Phone}}
{{.Customer.Address}}
หมายเหตุ: {{dash .Customer.Note}}

ดูรายละเอียดออเดอร์: {{.Link}}`))

// RenderOrderReceived builds the HTML and plain text bodies. Customer supplied
// fields are escaped in the HTML body.
func (m *Mailer) RenderOrderReceived(p OrderReceived) (Message, error) {
	view := orderReceivedView{OrderReceived: p, Link: p.StatusLink(m.statusURL)}

	var html, text bytes.Buffer
	if err := orderReceivedHTML.Execute(&html, view); err != nil {
		return Message{}, err
	}
	if err := orderReceivedText.Execute(&text, view); err != nil {
		return Message{}, err
	}

	return Message{
		From:    m.from,
		To:      p.To,
		Subject: OrderReceivedSubject,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

var productNoticeHTML = htmltemplate.Must(htmltemplate.New("product_notice.html").Parse(`
<div style="font-family:Inter,Arial,Helvetica,sans-serif;max-width:680px;margin:0 auto;padding:24px;background:#fff;">
  <h2 style="margin:0 0 8px;">{{.Subject}}</h2>
  {{if .SKU}}<p style="margin:0 0 12px;color:#555;font-size:13px;">SKU: {{.SKU}}</p>{{end}}
  <div style="border:1px solid #eee;border-radius:12px;padding:16px;white-space:pre-line;color:#333;">{{.Message}}</div>
  <p style="margin-top:16px;color:#666;">ขอบคุณที่ไว้วางใจเราเสมอค่ะ 💖</p>
  <p style="color:#666;margin:0;">Wishyoulucky's Shop</p>
</div>`))

var productNoticeText = texttemplate.Must(texttemplate.New("product_notice.txt").Parse(
	`{{.Subject}}
{{if .SKU}}SKU: {{.SKU}}
{{end}}
{{.Message}}

Wishyoulucky's Shop`))

// RenderProductNotice builds both bodies; the admin message is escaped in HTML.
func (m *Mailer) RenderProductNotice(n ProductNotice) (Message, error) {
	var html, text bytes.Buffer
	if err := productNoticeHTML.Execute(&html, n); err != nil {
		return Message{}, err
	}
	if err := productNoticeText.Execute(&text, n); err != nil {
		return Message{}, err
	}

	return Message{
		From:    m.from,
		To:      n.To,
		Subject: n.Subject,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
