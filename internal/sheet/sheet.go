// Package sheet decodes uploaded spreadsheet files into an ordered header
// list and one record per non-empty data row.
//
// The first non-empty row of the grid is the header row. Later rows become
// records keyed by header name and contain only the cells that hold a value.
package sheet

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "sheetdesk/internal/errors"
)

// Row is one data record: header name to string, float64 or bool.
type Row = map[string]any

// Result is the normalized form of a parsed spreadsheet.
type Result struct {
	Headers []string
	Rows    []Row
}

type format int

const (
	formatXLSX format = iota + 1
	formatCSV
)

var extensions = map[string]format{
	".xlsx": formatXLSX,
	".xlsm": formatXLSX,
	".csv":  formatCSV,
}

// Supported reports whether the file name carries an accepted extension.
func Supported(fileName string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(fileName))]
	return ok
}

// Parser turns spreadsheet bytes into a Result. It is safe for concurrent use.
type Parser struct {
	maxBytes int64
	tracer   trace.Tracer
}

// NewParser returns a parser that rejects inputs larger than maxBytes.
func NewParser(maxBytes int64) *Parser {
	return &Parser{
		maxBytes: maxBytes,
		tracer:   otel.Tracer("sheetdesk/internal/sheet"),
	}
}

// MaxBytes is the largest input Parse accepts.
func (p *Parser) MaxBytes() int64 { return p.maxBytes }

// Parse reads at most MaxBytes from r and decodes it according to the
// extension of fileName. Errors are *errors.AppError values:
// ErrUnsupportedFormat, ErrPayloadTooLarge or ErrMalformedInput, or
// ErrInternalServer wrapping ctx.Err() when ctx is done.
func (p *Parser) Parse(ctx context.Context, r io.Reader, fileName string) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "sheet.parse")
	defer span.End()

	ext := strings.ToLower(filepath.Ext(fileName))
	span.SetAttributes(attribute.String("sheet.extension", ext))

	kind, ok := extensions[ext]
	if !ok {
		span.SetStatus(codes.Error, "unsupported format")
		return nil, apperrors.ErrUnsupportedFormat
	}

	data, err := io.ReadAll(io.LimitReader(r, p.maxBytes+1))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, apperrors.Wrap(apperrors.ErrMalformedInput, err)
	}
	if int64(len(data)) > p.maxBytes {
		span.SetStatus(codes.Error, "payload too large")
		return nil, apperrors.ErrPayloadTooLarge
	}
	span.SetAttributes(attribute.Int("sheet.size_bytes", len(data)))

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancelled")
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var grid [][]string
	switch kind {
	case formatXLSX:
		if err := sniff(data, "application/zip"); err != nil {
			span.SetStatus(codes.Error, "content mismatch")
			return nil, err
		}
		grid, err = p.decodeXLSX(data)
	case formatCSV:
		if len(data) == 0 {
			return &Result{Headers: []string{}, Rows: []Row{}}, nil
		}
		if err := sniff(data, "text/plain"); err != nil {
			span.SetStatus(codes.Error, "content mismatch")
			return nil, err
		}
		grid, err = decodeCSV(data)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return nil, apperrors.Wrap(apperrors.ErrMalformedInput, err)
	}

	res := buildRecords(grid)
	span.SetAttributes(
		attribute.Int("sheet.rows", len(res.Rows)),
		attribute.Int("sheet.headers", len(res.Headers)),
	)
	span.SetStatus(codes.Ok, "parsed")
	return res, nil
}

// sniff checks that the detected content type is want or descends from it.
func sniff(data []byte, want string) error {
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if m.Is(want) {
			return nil
		}
	}
	return apperrors.Wrap(apperrors.ErrMalformedInput,
		fmt.Errorf("content detected as %s, expected %s", detected.String(), want))
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}
