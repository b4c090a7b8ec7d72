package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/openlistr/listings-api/internal/dto"
	"github.com/openlistr/listings-api/internal/fields"
	"github.com/openlistr/listings-api/internal/models"
	"github.com/openlistr/listings-api/internal/search"
	appErrors "github.com/openlistr/listings-api/pkg/errors"
	"github.com/openlistr/listings-api/pkg/export"
)

type listingGetter interface {
	Get(ctx context.Context, id string) (*models.ListingDetail, error)
}

type searcher interface {
	SearchAll(ctx context.Context, criteria search.Criteria, maxRows int) (*dto.SearchResult, error)
}

// ExportService renders search results as CSV and single listings as PDF
// sheets for operator use.
type ExportService struct {
	search   searcher
	listings listingGetter
	registry *fields.Registry
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	maxRows  int
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(searchSvc searcher, listings listingGetter, registry *fields.Registry,
	maxRows int, logger *zap.Logger) *ExportService {
	if maxRows <= 0 {
		maxRows = 5000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		search:   searchSvc,
		listings: listings,
		registry: registry,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		maxRows:  maxRows,
		logger:   logger,
	}
}

// SearchCSV runs the criteria and renders every matched row (capped at
// maxRows) with structural columns followed by the searchable fields.
func (s *ExportService) SearchCSV(ctx context.Context, criteria search.Criteria) ([]byte, error) {
	result, err := s.search.SearchAll(ctx, criteria, s.maxRows)
	if err != nil {
		return nil, err
	}

	searchable := true
	defs := s.registry.ListFields(fields.ListFilter{Searchable: &searchable, OrderBy: fields.OrderByPriority})
	headers := []string{"id", "title", "status", "created_at"}
	for _, def := range defs {
		headers = append(headers, def.Name)
	}

	rows := make([]map[string]string, 0, len(result.Items))
	for _, item := range result.Items {
		row := map[string]string{
			"id":         item.ID,
			"title":      item.Title,
			"status":     string(item.Status),
			"created_at": item.CreatedAt.Format("2006-01-02"),
		}
		for _, def := range defs {
			row[def.Name] = flattenValue(item.Attributes[def.Name])
		}
		rows = append(rows, row)
	}

	data, err := s.csv.Render(export.Dataset{Headers: headers, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv export failed")
	}
	return data, nil
}

// ListingPDF renders one listing's populated attributes as a printable sheet.
func (s *ExportService) ListingPDF(ctx context.Context, id string) ([]byte, error) {
	detail, err := s.listings.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sheetRows := []export.SheetRow{
		{Label: "Status", Value: string(detail.Status)},
		{Label: "Created", Value: detail.CreatedAt.Format("January 2, 2006")},
	}
	if len(detail.Tags) > 0 {
		sheetRows = append(sheetRows, export.SheetRow{Label: "Tags", Value: strings.Join(detail.Tags, ", ")})
	}
	for _, def := range s.registry.ListFields(fields.ListFilter{OrderBy: fields.OrderByPriority}) {
		value := flattenValue(detail.Attributes[def.Name])
		if value == "" {
			continue
		}
		sheetRows = append(sheetRows, export.SheetRow{Label: def.Label, Value: value})
	}

	data, err := s.pdf.RenderSheet(detail.Title, sheetRows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf export failed")
	}
	return data, nil
}

func flattenValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
