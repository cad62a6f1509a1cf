package data

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPricesCSV = `Date,Commodities,Price
2024-03-07,Gold,1900
2024-03-08,Gold,1950
2024-03-08,Tin,
2024-03-08,Copper,"8,500.5"
`

const testMetadataCSV = `Commodities,Sector,Nation,Change type,Impact,Unit
Gold,Metals,Global,Spot,High,oz
Copper,Metals,Chile,Spot,Medium,t
Tin,Metals,Indonesia,Spot,Low,t
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParsePrices(t *testing.T) {
	points, err := ParsePrices(strings.NewReader(testPricesCSV))
	require.NoError(t, err)
	require.Len(t, points, 3, "row with empty price is skipped")

	assert.Equal(t, "Gold", points[0].CommodityID)
	assert.True(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC).Equal(points[0].Date))
	assert.Equal(t, 1900.0, points[0].Price)
	assert.Equal(t, "Copper", points[2].CommodityID)
	assert.InDelta(t, 8500.5, points[2].Price, 1e-9)
}

func TestParsePrices_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"missing price column", "Date,Commodities\n2024-03-08,Gold\n", ErrMissingColumn},
		{"bad date", "Date,Commodities,Price\nyesterday,Gold,1\n", models.ErrInvalidDate},
		{"bad price", "Date,Commodities,Price\n2024-03-08,Gold,abc\n", models.ErrInvalidPrice},
		{"negative price", "Date,Commodities,Price\n2024-03-08,Gold,-3\n", models.ErrInvalidPrice},
		{"empty commodity", "Date,Commodities,Price\n2024-03-08,,3\n", models.ErrInvalidCommodity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePrices(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParsePrices_ReportsLine(t *testing.T) {
	_, err := ParsePrices(strings.NewReader("Date,Commodities,Price\n2024-03-08,Gold,1\n2024-03-09,Gold,x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestParseMetadata(t *testing.T) {
	metadata, err := ParseMetadata(strings.NewReader(testMetadataCSV))
	require.NoError(t, err)
	require.Len(t, metadata, 3)

	gold := metadata[0]
	assert.Equal(t, "Gold", gold.CommodityID)
	assert.Equal(t, "Metals", gold.Sector)
	assert.Equal(t, "Global", gold.Nation)
	assert.Equal(t, "Spot", gold.ChangeType)
	assert.Equal(t, "High", gold.Impact)
	assert.Equal(t, map[string]string{"Unit": "oz"}, gold.Fields)
}

func TestParseMetadata_OptionalColumns(t *testing.T) {
	metadata, err := ParseMetadata(strings.NewReader("Commodities\nGold\n\nSilver\n"))
	require.NoError(t, err)
	require.Len(t, metadata, 2)
	assert.Equal(t, "", metadata[0].Sector)
	assert.Nil(t, metadata[0].Fields)
}

func TestParseMetadata_Errors(t *testing.T) {
	_, err := ParseMetadata(strings.NewReader("Sector\nMetals\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = ParseMetadata(strings.NewReader("Commodities,Sector\nGold,Metals\nGold,Metals\n"))
	assert.ErrorIs(t, err, models.ErrDuplicateMeta)
}

func TestCSVSource(t *testing.T) {
	dir := t.TempDir()
	pricesPath := writeFile(t, dir, "prices.csv", testPricesCSV)
	metadataPath := writeFile(t, dir, "commodities.csv", testMetadataCSV)

	src, err := NewCSVSource(pricesPath, metadataPath)
	require.NoError(t, err)
	assert.Equal(t, "csv", src.Name())

	ctx := context.Background()
	tables, err := LoadTables(ctx, src)
	require.NoError(t, err)
	assert.Len(t, tables.Prices, 3)
	assert.Len(t, tables.Metadata, 3)
	assert.NotEmpty(t, tables.Fingerprint)

	again, err := src.Fingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, tables.Fingerprint, again, "fingerprint is stable for unchanged files")

	writeFile(t, dir, "prices.csv", testPricesCSV+"2024-03-11,Gold,1960\n")
	changed, err := src.Fingerprint(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, tables.Fingerprint, changed)
}

func TestCSVSource_Unavailable(t *testing.T) {
	_, err := NewCSVSource("", "meta.csv")
	assert.Error(t, err)

	src, err := NewCSVSource(filepath.Join(t.TempDir(), "missing.csv"), filepath.Join(t.TempDir(), "missing.csv"))
	require.NoError(t, err)

	_, err = LoadTables(context.Background(), src)
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
}

func TestSourceRegistry(t *testing.T) {
	registry := NewSourceRegistry()
	assert.Equal(t, []string{"csv"}, registry.List())

	err := registry.Register("csv", nil)
	assert.ErrorIs(t, err, ErrSourceRegistered)

	_, err = registry.Create("parquet", nil)
	assert.ErrorIs(t, err, ErrUnknownSource)

	src, err := registry.Create("csv", map[string]string{
		"prices_file":   "prices.csv",
		"metadata_file": "commodities.csv",
	})
	require.NoError(t, err)
	assert.Equal(t, "csv", src.Name())
}
