package report

import (
	"fmt"
	"html/template"
	"strings"
)

// Date format matching the report headers ("3/14/2026").
const dateLayout = "1/2/2006"

var funcs = template.FuncMap{
	"upper": strings.ToUpper,
}

// singleTmpl renders a one-order material report.
var singleTmpl = template.Must(template.New("single").Parse(`
<h3>Material Submission Details</h3>
<p><strong>Submitted By:</strong> {{.Name}}</p>
<p><strong>Store/Site:</strong> {{.Store}}</p>
{{- if .Engineer}}
<p><strong>Engineer:</strong> {{.Engineer}}</p>
{{- end}}
{{- if .Vendor}}
<p><strong>Vendor:</strong> {{.Vendor}}</p>
{{- end}}
{{- if .OrderNo}}
<p><strong>Order Number:</strong> {{.OrderNo}}</p>
{{- end}}

<h4>Items List</h4>
<table style="border-collapse: collapse; width: 100%; font-family: Arial, sans-serif;">
  <thead>
    <tr style="background-color: #033f85; color: white;">
      <th style="padding: 10px; border: 1px solid #ddd;">ID</th>
      <th style="padding: 10px; border: 1px solid #ddd;">Description</th>
      <th style="padding: 10px; border: 1px solid #ddd;">Qty / Weight</th>
      <th style="padding: 10px; border: 1px solid #ddd;">Category</th>
    </tr>
  </thead>
  <tbody>
{{- range .Items}}
    <tr>
      <td style="border: 1px solid #ddd; padding: 8px;">{{.ID}}</td>
      <td style="border: 1px solid #ddd; padding: 8px;">{{.Name}}</td>
      <td align="center" style="border: 1px solid #ddd; padding: 8px;">{{.Quantity}}</td>
      <td style="border: 1px solid #ddd; padding: 8px;">{{.Category}}</td>
    </tr>
{{- end}}
  </tbody>
</table>
`))

// consolidatedTmpl renders a multi-order report with a summary header, one
// "Order #N" section per draft, and an end-of-report footer. The fixed Sloc/
// Plnt/Act column values come from the stock system the report is keyed into.
var consolidatedTmpl = template.Must(template.New("consolidated").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 1200px; margin: 0 auto; padding: 20px;">
  <div style="background-color: #033f85; color: white; padding: 20px; margin-bottom: 30px;">
    <h1 style="margin: 0;">Consolidated Scrap Material Report</h1>
    <p style="margin: 10px 0 0 0; font-size: 16px;">
      Total Orders: {{.TotalOrders}} | Date: {{.Date}}
    </p>
  </div>
{{- range .Sections}}
  <div style="margin-bottom: 40px; page-break-after: always;">
    <h2 style="background-color: #033f85; color: white; padding: 15px; margin: 0;">
      Order #{{.Number}}
    </h2>
    <div style="background-color: #f9f9f9; padding: 15px; border: 1px solid #ddd;">
      <p><strong>Recipient Name:</strong> {{.Name}}</p>
      <p><strong>Email:</strong> {{.Email}}</p>
      <p><strong>Store Location:</strong> {{.Store}}</p>
{{- if .Engineer}}
      <p><strong>Engineer:</strong> {{.Engineer}}</p>
{{- end}}
{{- if .Vendor}}
      <p><strong>Vendor:</strong> {{.Vendor}}</p>
{{- end}}
{{- if .OrderNo}}
      <p><strong>Order Number:</strong> {{.OrderNo}}</p>
{{- end}}
    </div>
    <h3 style="margin-top: 20px;">Order Details</h3>
    <table border="1" cellpadding="5" cellspacing="0"
      style="border-collapse: collapse; width: 100%; font-size: 12px; margin-bottom: 30px;">
      <thead>
        <tr style="background-color: #e9c46a;">
          <th>Component</th>
          <th>Description</th>
          <th>Reqmnt Qnt</th>
          <th>UM</th>
          <th>LC</th>
          <th>Sloc</th>
          <th>Plnt</th>
          <th>Act.</th>
          <th>Batch</th>
          <th>Proc. Category</th>
          <th>Recipient</th>
        </tr>
      </thead>
      <tbody>
{{- $recipient := upper .Name}}
{{- range .Items}}
        <tr>
          <td>{{.ID}}</td>
          <td>{{.Name}}</td>
          <td align="center">{{.Quantity}}</td>
          <td></td>
          <td></td>
          <td align="center">0003</td>
          <td align="center">TD02</td>
          <td align="center">0010</td>
          <td></td>
          <td></td>
          <td>{{$recipient}}</td>
        </tr>
{{- end}}
      </tbody>
    </table>
  </div>
{{- end}}
  <div style="margin-top: 30px; padding: 15px; background-color: #f0f0f0; border-left: 4px solid #033f85;">
    <p style="margin: 0;"><strong>End of Report</strong></p>
    <p style="margin: 5px 0 0 0; font-size: 12px; color: #666;">
      This report contains {{.TotalOrders}} consolidated orders.
    </p>
  </div>
</body>
</html>
`))

// RenderSingle produces the subject and HTML body for a one-order report.
func RenderSingle(r Report) (subject, body string, err error) {
	if len(r.Sections) != 1 {
		return "", "", fmt.Errorf("single report requires exactly one section, have %d", len(r.Sections))
	}
	section := r.Sections[0]
	subject = fmt.Sprintf("Material Report: %s - %s", section.Name, r.GeneratedAt.Format(dateLayout))

	var sb strings.Builder
	if err := singleTmpl.Execute(&sb, section); err != nil {
		return "", "", fmt.Errorf("rendering report: %w", err)
	}
	return subject, sb.String(), nil
}

// RenderConsolidated produces the subject and HTML body for a multi-order
// report.
func RenderConsolidated(r Report) (subject, body string, err error) {
	subject = fmt.Sprintf("Consolidated Scrap Material Report - %d Orders - %s",
		r.TotalOrders, r.GeneratedAt.Format(dateLayout))

	data := struct {
		Report
		Date string
	}{r, r.GeneratedAt.Format(dateLayout)}

	var sb strings.Builder
	if err := consolidatedTmpl.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("rendering consolidated report: %w", err)
	}
	return subject, sb.String(), nil
}
