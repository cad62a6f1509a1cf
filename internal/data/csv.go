package data

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
)

// CSVSource reads the price history and the commodity list from two CSV files
type CSVSource struct {
	pricesPath   string
	metadataPath string
}

// NewCSVSource creates a CSV source
func NewCSVSource(pricesPath, metadataPath string) (*CSVSource, error) {
	if pricesPath == "" {
		return nil, errors.New("prices file path is required")
	}
	if metadataPath == "" {
		return nil, errors.New("metadata file path is required")
	}
	return &CSVSource{
		pricesPath:   pricesPath,
		metadataPath: metadataPath,
	}, nil
}

// Name returns the source type
func (s *CSVSource) Name() string {
	return "csv"
}

// LoadPrices reads the price file
func (s *CSVSource) LoadPrices(ctx context.Context) ([]models.PricePoint, error) {
	f, err := os.Open(s.pricesPath)
	if err != nil {
		return nil, fmt.Errorf("open prices file: %w", err)
	}
	defer f.Close()

	return ParsePrices(f)
}

// LoadMetadata reads the commodity list file
func (s *CSVSource) LoadMetadata(ctx context.Context) ([]models.CommodityMeta, error) {
	f, err := os.Open(s.metadataPath)
	if err != nil {
		return nil, fmt.Errorf("open metadata file: %w", err)
	}
	defer f.Close()

	return ParseMetadata(f)
}

// Fingerprint hashes the content of both files
func (s *CSVSource) Fingerprint(ctx context.Context) (string, error) {
	h := sha256.New()
	for _, path := range []string{s.pricesPath, s.metadataPath} {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open %s: %w", path, err)
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		// separator so that moving bytes between files changes the hash
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ParsePrices parses a price CSV with Date, Commodities and Price columns.
// Rows with an empty price are skipped; any other malformed row fails the parse.
func ParsePrices(r io.Reader) ([]models.PricePoint, error) {
	reader := newCSVReader(r)

	columns, err := readHeader(reader, columnCommodity, columnDate, columnPrice)
	if err != nil {
		return nil, err
	}

	var points []models.PricePoint
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRow, err)
		}
		line, _ := reader.FieldPos(0)

		commodity := NormalizeCommodity(cell(record, columns[columnCommodity]))
		rawPrice := strings.TrimSpace(cell(record, columns[columnPrice]))
		if rawPrice == "" {
			continue
		}
		if commodity == "" {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidRow, line, models.ErrInvalidCommodity)
		}

		date, err := NormalizeDate(cell(record, columns[columnDate]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidRow, line, err)
		}
		price, err := NormalizePrice(rawPrice)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidRow, line, err)
		}

		points = append(points, models.PricePoint{
			CommodityID: commodity,
			Date:        date,
			Price:       price,
		})
	}

	return points, nil
}

// ParseMetadata parses a commodity list CSV. Commodities is required; Sector,
// Nation, Change type and Impact are optional and other columns go to Fields.
func ParseMetadata(r io.Reader) ([]models.CommodityMeta, error) {
	reader := newCSVReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrInvalidRow, err)
	}
	columns := indexColumns(header)
	if _, ok := columns[columnCommodity]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, columnCommodity)
	}

	extra := make(map[int]string)
	for i, h := range header {
		if canonicalColumn(h) == "" && strings.TrimSpace(h) != "" {
			extra[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		}
	}

	seen := make(map[string]bool)
	metadata := []models.CommodityMeta{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRow, err)
		}
		line, _ := reader.FieldPos(0)

		meta := models.CommodityMeta{
			CommodityID: NormalizeCommodity(cell(record, columns[columnCommodity])),
			Sector:      optionalCell(record, columns, columnSector),
			Nation:      optionalCell(record, columns, columnNation),
			ChangeType:  optionalCell(record, columns, columnChangeType),
			Impact:      optionalCell(record, columns, columnImpact),
		}
		if meta.CommodityID == "" {
			continue
		}
		if seen[meta.CommodityID] {
			return nil, fmt.Errorf("%w: line %d: %s", models.ErrDuplicateMeta, line, meta.CommodityID)
		}
		seen[meta.CommodityID] = true

		for i, name := range extra {
			if meta.Fields == nil {
				meta.Fields = make(map[string]string)
			}
			meta.Fields[name] = strings.TrimSpace(cell(record, i))
		}

		metadata = append(metadata, meta)
	}

	return metadata, nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

func readHeader(reader *csv.Reader, required ...string) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrInvalidRow, err)
	}
	columns := indexColumns(header)
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return columns, nil
}

// indexColumns maps canonical column names to their position; the first occurrence wins
func indexColumns(header []string) map[string]int {
	columns := make(map[string]int)
	for i, h := range header {
		name := canonicalColumn(h)
		if name == "" {
			continue
		}
		if _, exists := columns[name]; !exists {
			columns[name] = i
		}
	}
	return columns
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

func optionalCell(record []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(cell(record, i))
}
