package report

import (
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const pageStyle = "html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;} " +
	"body{font-family:-apple-system,'Segoe UI',Helvetica,Arial,sans-serif;color:#1c1917;background:#fff;padding:0.6rem;} " +
	".report{max-width:960px;margin:0 auto;} " +
	"h1{font-size:1.5rem;border-bottom:2px solid #92400e;padding-bottom:0.3rem;} " +
	"h2{font-size:1.15rem;margin-top:1.4rem;} " +
	"table{width:100%;border-collapse:collapse;border:1px solid #a8a29e;font-size:0.85rem;} " +
	"th,td{border:1px solid #a8a29e;padding:0.35rem 0.45rem;vertical-align:top;} " +
	"thead th{background:#f1f5f9;font-weight:700;} " +
	"blockquote{margin:1rem 0;padding:0.5rem 0.8rem;background:#fef3c7;border-left:3px solid #fcd34d;color:#78350f;} " +
	"pre{background:#f8fafc;padding:0.5rem;font-size:0.8rem;overflow-x:auto;} " +
	"@media print{ @page{size:auto;margin:12mm;} body{padding:0;} .report{max-width:none;} hr{border:0;margin:0;break-after:page;} }"

// HTML converts a Markdown report into a self-contained HTML page.
func HTML(title, markdown string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}

	return "<!doctype html><html><head><meta charset='utf-8'><title>" + html.EscapeString(title) + "</title>" +
		"<style>" + pageStyle + "</style></head><body>" +
		"<div class='report'>" + content.String() + "</div>" +
		"</body></html>", nil
}

// Title is the page title used for a document's HTML and PDF exports.
func Title(d Document) string {
	return fmt.Sprintf("Shadow Payroll Estimate: %s to %s", d.Input.HomeCountry, d.Input.HostCountry)
}
