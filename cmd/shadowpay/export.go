package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/shadow-payroll/internal/cli"
	"github.com/Veraticus/shadow-payroll/internal/common"
	"github.com/Veraticus/shadow-payroll/internal/config"
	"github.com/Veraticus/shadow-payroll/internal/report"
	"github.com/Veraticus/shadow-payroll/internal/sheets"
	"github.com/spf13/viper"
)

var exportFormats = []string{"md", "html", "pdf", "csv", "yaml"}

func validateFormats(formats []string) error {
	for _, f := range formats {
		switch strings.ToLower(f) {
		case "md", "html", "pdf", "csv", "yaml":
		default:
			return common.NewUserError(
				fmt.Sprintf("unknown export format %q (choose from %s)", f, strings.Join(exportFormats, ", ")),
				common.ErrValidation)
		}
	}
	return nil
}

// renderExport produces one export of doc.
func renderExport(ctx context.Context, doc report.Document, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "md":
		return []byte(report.Markdown(doc)), nil
	case "html":
		page, err := report.HTML(report.Title(doc), report.Markdown(doc))
		if err != nil {
			return nil, err
		}
		return []byte(page), nil
	case "pdf":
		page, err := report.HTML(report.Title(doc), report.Markdown(doc))
		if err != nil {
			return nil, err
		}
		return report.NewPDFRenderer(report.WithChromePath(viper.GetString("export.chrome_path"))).Render(ctx, page)
	case "csv":
		var buf bytes.Buffer
		if err := report.CSV(&buf, doc.Fields()); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "yaml":
		var buf bytes.Buffer
		if err := report.YAML(&buf, doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", common.ErrValidation, format)
	}
}

// writeExports writes each format to dir as <base>.<format> and reports the paths on w.
func writeExports(ctx context.Context, w io.Writer, doc report.Document, formats []string, dir, base string) error {
	if len(formats) == 0 {
		return nil
	}
	if err := os.MkdirAll(config.ExpandPath(dir), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, format := range formats {
		data, err := renderExport(ctx, doc, format)
		if err != nil {
			return fmt.Errorf("failed to export %s: %w", format, err)
		}
		path := filepath.Join(config.ExpandPath(dir), base+"."+strings.ToLower(format))
		if err := os.WriteFile(path, data, 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintln(w, cli.FormatSuccess("Exported "+path))
	}
	return nil
}

// exportSheet writes table to the configured spreadsheet and returns its URL.
func exportSheet(ctx context.Context, table sheets.Table, logger *slog.Logger) (string, error) {
	cfg, err := config.LoadSheetsConfig(viper.GetViper())
	if err != nil {
		return "", common.NewUserError("Google Sheets is not configured (run `shadowpay sheets auth` or set a service account)", err)
	}

	writer, err := sheets.NewWriter(ctx, cfg, logger)
	if err != nil {
		return "", fmt.Errorf("failed to create sheets writer: %w", err)
	}

	id, err := writer.Write(ctx, table)
	if err != nil {
		return "", err
	}
	return "https://docs.google.com/spreadsheets/d/" + id, nil
}
