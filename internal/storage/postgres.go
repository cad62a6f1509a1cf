package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/mohamedkhairy/commodity-dashboard/internal/config"
	"github.com/mohamedkhairy/commodity-dashboard/internal/models"
	"github.com/mohamedkhairy/commodity-dashboard/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	postgresQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postgres_source_query_total",
			Help: "Total number of queries issued by the PostgreSQL source",
		},
		[]string{"query", "status"}, // status: "success" or "error"
	)

	postgresQueryLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postgres_source_query_latency_seconds",
			Help:    "Query latency of the PostgreSQL source in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"query"},
	)
)

const (
	selectPricesQuery = `
		SELECT commodity_id, date, price
		FROM commodity_prices
		WHERE price IS NOT NULL
		ORDER BY commodity_id, date
	`

	selectMetadataQuery = `
		SELECT commodity_id, sector, nation, change_type, impact
		FROM commodity_list
		ORDER BY commodity_id
	`

	fingerprintQuery = `
		SELECT
			(SELECT COUNT(*) FROM commodity_prices),
			(SELECT MAX(date) FROM commodity_prices),
			(SELECT COUNT(*) FROM commodity_list)
	`
)

// PostgresSource reads the price history and commodity list from PostgreSQL
type PostgresSource struct {
	db *sql.DB
}

// ConnectionString builds a lib/pq connection string from the database configuration
func ConnectionString(dbConfig config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Database,
		dbConfig.SSLMode,
	)
}

// NewPostgresSource opens a connection pool and verifies it
func NewPostgresSource(dbConfig config.DatabaseConfig) (*PostgresSource, error) {
	db, err := sql.Open("postgres", ConnectionString(dbConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(dbConfig.MaxConnections)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to PostgreSQL",
		logger.String("host", dbConfig.Host),
		logger.Int("port", dbConfig.Port),
		logger.String("database", dbConfig.Database),
	)

	return NewPostgresSourceFromDB(db), nil
}

// NewPostgresSourceFromDB wraps an existing connection pool
func NewPostgresSourceFromDB(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// Name returns the source type
func (p *PostgresSource) Name() string {
	return "postgres"
}

// LoadPrices reads every non-null price row
func (p *PostgresSource) LoadPrices(ctx context.Context) ([]models.PricePoint, error) {
	defer observeQuery("prices", time.Now())

	rows, err := p.db.QueryContext(ctx, selectPricesQuery)
	if err != nil {
		postgresQueryTotal.WithLabelValues("prices", "error").Inc()
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var points []models.PricePoint
	for rows.Next() {
		var point models.PricePoint
		if err := rows.Scan(&point.CommodityID, &point.Date, &point.Price); err != nil {
			postgresQueryTotal.WithLabelValues("prices", "error").Inc()
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		point.CommodityID = strings.TrimSpace(point.CommodityID)
		point.Date = models.Day(point.Date)
		if err := point.Validate(); err != nil {
			postgresQueryTotal.WithLabelValues("prices", "error").Inc()
			return nil, fmt.Errorf("invalid price row for %q: %w", point.CommodityID, err)
		}
		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		postgresQueryTotal.WithLabelValues("prices", "error").Inc()
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	postgresQueryTotal.WithLabelValues("prices", "success").Inc()
	return points, nil
}

// LoadMetadata reads the commodity list. Null descriptive columns become empty strings.
func (p *PostgresSource) LoadMetadata(ctx context.Context) ([]models.CommodityMeta, error) {
	defer observeQuery("metadata", time.Now())

	rows, err := p.db.QueryContext(ctx, selectMetadataQuery)
	if err != nil {
		postgresQueryTotal.WithLabelValues("metadata", "error").Inc()
		return nil, fmt.Errorf("failed to query commodity list: %w", err)
	}
	defer rows.Close()

	metadata := []models.CommodityMeta{}
	for rows.Next() {
		var (
			id                                 string
			sector, nation, changeType, impact null.String
		)
		if err := rows.Scan(&id, &sector, &nation, &changeType, &impact); err != nil {
			postgresQueryTotal.WithLabelValues("metadata", "error").Inc()
			return nil, fmt.Errorf("failed to scan commodity: %w", err)
		}
		metadata = append(metadata, models.CommodityMeta{
			CommodityID: strings.TrimSpace(id),
			Sector:      sector.ValueOrZero(),
			Nation:      nation.ValueOrZero(),
			ChangeType:  changeType.ValueOrZero(),
			Impact:      impact.ValueOrZero(),
		})
	}

	if err := rows.Err(); err != nil {
		postgresQueryTotal.WithLabelValues("metadata", "error").Inc()
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	postgresQueryTotal.WithLabelValues("metadata", "success").Inc()
	return metadata, nil
}

// Fingerprint summarizes both tables by row counts and latest price date
func (p *PostgresSource) Fingerprint(ctx context.Context) (string, error) {
	defer observeQuery("fingerprint", time.Now())

	var (
		priceCount, metaCount int64
		maxDate               null.Time
	)
	if err := p.db.QueryRowContext(ctx, fingerprintQuery).Scan(&priceCount, &maxDate, &metaCount); err != nil {
		postgresQueryTotal.WithLabelValues("fingerprint", "error").Inc()
		return "", fmt.Errorf("failed to fingerprint tables: %w", err)
	}

	postgresQueryTotal.WithLabelValues("fingerprint", "success").Inc()
	return FormatFingerprint(priceCount, maxDate, metaCount), nil
}

// FormatFingerprint renders the table summary used as a change token
func FormatFingerprint(priceCount int64, maxDate null.Time, metaCount int64) string {
	latest := "none"
	if maxDate.Valid {
		latest = models.Day(maxDate.Time).Format(models.DateLayout)
	}
	return fmt.Sprintf("pg:%d:%s:%d", priceCount, latest, metaCount)
}

// Close closes the connection pool
func (p *PostgresSource) Close() error {
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

func observeQuery(query string, start time.Time) {
	postgresQueryLatency.WithLabelValues(query).Observe(time.Since(start).Seconds())
}
