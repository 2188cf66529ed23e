package notifier

import (
	"bytes"
	"html/template"
)

// Slot is one bookable interval worth announcing to subscribers.
type Slot struct {
	Date   string
	Start  string
	End    string
	Room   string
	Remain int64
}

func (s Slot) BadgeColor() string {
	switch {
	case s.Remain <= 0:
		return "#ee5a52"
	case s.Remain <= 1:
		return "#ff9800"
	default:
		return "#4caf50"
	}
}

var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Training Slots Available</title></head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; background: #667eea; margin: 0; padding: 40px 20px; color: #ffffff; line-height: 1.6;">
  <div style="max-width: 600px; margin: 0 auto;">
    <table role="presentation" width="100%" cellspacing="0" cellpadding="0" border="0" style="background: rgba(255,255,255,0.1); border-radius: 24px; margin-bottom: 20px;">
      <tr><td style="padding: 30px; text-align: center;">
        <h2 style="font-size: 24px; margin: 0 0 10px;">New training slots are open</h2>
        <p style="font-size: 15px; margin: 0;">Grab one before they fill up.</p>
      </td></tr>
    </table>
    <table role="presentation" width="100%" cellspacing="0" cellpadding="0" border="0" style="background: rgba(255,255,255,0.1); border-radius: 16px;">
      <tr style="border-bottom: 1px solid rgba(255,255,255,0.3);">
        <th style="padding: 12px; text-align: left;">Date</th>
        <th style="padding: 12px; text-align: center;">Time</th>
        <th style="padding: 12px; text-align: center;">Room</th>
        <th style="padding: 12px; text-align: center;">Spots</th>
      </tr>
{{- range .Slots}}
      <tr style="border-bottom: 1px solid rgba(255,255,255,0.15);">
        <td style="padding: 14px 12px; text-align: left;">{{.Date}}</td>
        <td style="padding: 14px 12px; text-align: center;">{{.Start}} - {{.End}}</td>
        <td style="padding: 14px 12px; text-align: center;">Room {{.Room}}</td>
        <td style="padding: 14px 12px; text-align: center;">
          <span style="background: {{.BadgeColor}}; color: white; padding: 5px 12px; border-radius: 20px; font-size: 12px; font-weight: 600;">{{.Remain}} spots left</span>
        </td>
      </tr>
{{- end}}
    </table>
    <p style="text-align: center; margin-top: 24px;">
      <a href="{{.UnsubscribeURL}}" style="color: #ffd0d0;" target="_blank" rel="noopener noreferrer">Unsubscribe</a>
    </p>
  </div>
</body>
</html>
`))

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<html>
<body style="font-family: 'Segoe UI', Tahoma, sans-serif; background: #7e5bef; margin: 0; padding: 40px 20px; color: #fff;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" border="0" style="max-width: 600px; margin: auto; background: rgba(255,255,255,0.1); border-radius: 20px;">
    <tr><td style="padding: 40px 30px; text-align: center;">
      <h2 style="font-size: 28px; margin: 0 0 10px; font-weight: 700;">You're now subscribed!</h2>
      <p style="font-size: 16px; margin: 0 0 40px;">Thanks for subscribing! We'll notify you as soon as slots become available.</p>
      <a href="{{.UnsubscribeURL}}" style="display: inline-block; background: #c53030; color: white !important; text-decoration: none; padding: 14px 24px; border-radius: 24px; font-weight: 600;" target="_blank" rel="noopener noreferrer">Unsubscribe</a>
    </td></tr>
  </table>
</body>
</html>
`))

func RenderDigest(slots []Slot, unsubscribeURL string) ([]byte, error) {
	var buf bytes.Buffer
	err := digestTemplate.Execute(&buf, struct {
		Slots          []Slot
		UnsubscribeURL string
	}{Slots: slots, UnsubscribeURL: unsubscribeURL})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func RenderWelcome(unsubscribeURL string) ([]byte, error) {
	var buf bytes.Buffer
	err := welcomeTemplate.Execute(&buf, struct {
		UnsubscribeURL string
	}{UnsubscribeURL: unsubscribeURL})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
