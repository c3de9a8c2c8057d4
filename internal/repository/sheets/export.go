package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/Latif-jpg/site-aviprod-sub002/internal/config"
	"github.com/Latif-jpg/site-aviprod-sub002/internal/service/ledger"
)

const consumptionExportRange = "Consumption!A:F"

// Exporter appends one summary row per committed ledger run to a Google
// Sheet, giving farm owners a spreadsheet view of the daily draw-down
// without touching the primary store.
type Exporter struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewExporter builds a Google Sheets backed run-report exporter.
func NewExporter(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &Exporter{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// ExportRunReport appends one row per touched stock item: day, farm, item,
// planned and consumed kilograms, and whether the decrement clamped.
func (e *Exporter) ExportRunReport(ctx context.Context, report ledger.RunReport) error {
	if len(report.Items) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(report.Items))
	for _, item := range report.Items {
		if item.AlreadyApplied {
			continue
		}
		rows = append(rows, []interface{}{
			report.Day,
			report.FarmID,
			item.Name,
			item.PlannedKg,
			item.ConsumedKg,
			item.Clamped,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	payload := &sheetsapi.ValueRange{Values: rows}
	call := e.service.Spreadsheets.Values.Append(e.spreadsheetID, consumptionExportRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append consumption rows: %w", err)
	}

	e.logger.Debug("run report exported to sheet",
		zap.String("farm_id", report.FarmID),
		zap.String("day", report.Day),
		zap.Int("rows", len(rows)))
	return nil
}
