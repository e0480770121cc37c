package snapshotstore

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format names a supported export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// Export renders ns in the requested format.
func Export(ns NamedSnapshot, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return exportJSON(ns)
	case FormatCSV:
		return exportCSV(ns), nil
	case FormatHTML:
		return exportHTML(ns), nil
	default:
		return "", fmt.Errorf("snapshotstore: unknown export format %q", format)
	}
}

func exportJSON(ns NamedSnapshot) (string, error) {
	data, err := json.MarshalIndent(ns, "", "  ")
	if err != nil {
		return "", fmt.Errorf("snapshotstore: export json: %w", err)
	}
	return string(data), nil
}

func exportCSV(ns NamedSnapshot) string {
	var b strings.Builder
	b.WriteString("PID,Name,User,CPU%,Memory(KB),Status,Command\n")
	for _, p := range ns.Processes {
		command := strings.ReplaceAll(p.Command, ",", ";")
		fmt.Fprintf(&b, "%d,%s,%s,%.1f,%d,%s,%s\n",
			p.PID, p.Name, p.User, p.CPUPercent, p.RSSKB, string(p.State), command)
	}
	return b.String()
}

func exportHTML(ns NamedSnapshot) string {
	var b strings.Builder
	b.WriteString("<html><head><style>")
	b.WriteString("table{border-collapse:collapse;width:100%}")
	b.WriteString("th,td{border:1px solid #ccc;padding:4px 8px;text-align:left}")
	b.WriteString("th{background:#333;color:#fff}")
	b.WriteString("</style></head><body>")
	fmt.Fprintf(&b, "<h1>%s</h1>", htmlEscape(ns.Name))
	b.WriteString("<table><tr><th>PID</th><th>Name</th><th>User</th><th>CPU%</th><th>Memory(KB)</th><th>Status</th></tr>")
	for _, p := range ns.Processes {
		fmt.Fprintf(&b, "<tr><td>%d</td><td>%s</td><td>%s</td><td>%.1f</td><td>%d</td><td>%s</td></tr>",
			p.PID, htmlEscape(p.Name), htmlEscape(p.User), p.CPUPercent, p.RSSKB, string(p.State))
	}
	b.WriteString("</table></body></html>")
	return b.String()
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
