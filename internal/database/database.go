package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agrimap/server/internal/models"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultListLimit caps listings that do not set their own limit
const DefaultListLimit = 1000

var ErrDuplicateReport = errors.New("report already exists")

type Database struct {
	db *gorm.DB
}

// reportRecord is the persisted shape of a price report
type reportRecord struct {
	ID              string `gorm:"primaryKey;size:64"`
	UserID          string `gorm:"size:128"`
	Role            string `gorm:"size:16;not null"`
	ProductID       string `gorm:"size:64;not null;index"`
	ProductName     string
	ProductCategory string `gorm:"size:32"`
	ProductUnit     string `gorm:"size:16"`
	Price           float64 `gorm:"not null"`
	Latitude        float64 `gorm:"not null"`
	Longitude       float64 `gorm:"not null"`
	Barangay        string
	Municipality    string
	Province        string
	TrafficStatus   string          `gorm:"size:16"`
	MarketCondition string          `gorm:"size:16"`
	Weather         *models.Weather `gorm:"serializer:json"`
	Notes           string
	Verified        bool
	ReportedAt      time.Time `gorm:"not null;index"`
	CreatedAt       time.Time
}

func (reportRecord) TableName() string {
	return "price_reports"
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Concurrent readers while the processor writes
	if err := db.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	return &Database{db: db}, nil
}

func (d *Database) GetDB() *gorm.DB {
	return d.db
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InsertReports appends reports using tx, which may be a transaction
func InsertReports(tx *gorm.DB, reports []*models.PriceReport) error {
	if len(reports) == 0 {
		return nil
	}

	records := make([]reportRecord, len(reports))
	for i, r := range reports {
		records[i] = toRecord(r)
	}

	if err := tx.Create(&records).Error; err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) &&
			(sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique) {
			return fmt.Errorf("%w: %v", ErrDuplicateReport, err)
		}
		return err
	}
	return nil
}

// InsertReports appends reports in a single transaction
func (d *Database) InsertReports(ctx context.Context, reports []*models.PriceReport) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return InsertReports(tx, reports)
	})
}

// ListReports returns matching reports, most recent first
func (d *Database) ListReports(ctx context.Context, filter models.ReportFilter) ([]models.PriceReport, error) {
	query := d.db.WithContext(ctx).Model(&reportRecord{})
	if filter.ProductID != "" {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if !filter.Since.IsZero() {
		query = query.Where("reported_at >= ?", filter.Since.UTC())
	}
	if !filter.Until.IsZero() {
		query = query.Where("reported_at < ?", filter.Until.UTC())
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var records []reportRecord
	if err := query.Order("reported_at DESC").Order("id DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	reports := make([]models.PriceReport, len(records))
	for i := range records {
		reports[i] = records[i].toModel()
	}
	return reports, nil
}

// DeleteReportsBefore prunes reports submitted before cutoff
func (d *Database) DeleteReportsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := d.db.WithContext(ctx).Where("reported_at < ?", cutoff.UTC()).Delete(&reportRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete reports: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (d *Database) CountReports(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&reportRecord{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func toRecord(r *models.PriceReport) reportRecord {
	return reportRecord{
		ID:              r.ID,
		UserID:          r.UserID,
		Role:            string(r.Role),
		ProductID:       r.Product.ID,
		ProductName:     r.Product.Name,
		ProductCategory: r.Product.Category,
		ProductUnit:     r.Product.Unit,
		Price:           r.Price,
		Latitude:        r.Location.Latitude,
		Longitude:       r.Location.Longitude,
		Barangay:        r.Location.Barangay,
		Municipality:    r.Location.Municipality,
		Province:        r.Location.Province,
		TrafficStatus:   string(r.TrafficStatus),
		MarketCondition: string(r.MarketCondition),
		Weather:         r.Weather,
		Notes:           r.Notes,
		Verified:        r.Verified,
		ReportedAt:      r.Timestamp.UTC(),
	}
}

func (rec reportRecord) toModel() models.PriceReport {
	return models.PriceReport{
		ID:     rec.ID,
		UserID: rec.UserID,
		Role:   models.Role(rec.Role),
		Product: models.Product{
			ID:       rec.ProductID,
			Name:     rec.ProductName,
			Category: rec.ProductCategory,
			Unit:     rec.ProductUnit,
		},
		Price: rec.Price,
		Location: models.Location{
			Latitude:     rec.Latitude,
			Longitude:    rec.Longitude,
			Barangay:     rec.Barangay,
			Municipality: rec.Municipality,
			Province:     rec.Province,
		},
		TrafficStatus:   models.TrafficStatus(rec.TrafficStatus),
		MarketCondition: models.MarketCondition(rec.MarketCondition),
		Weather:         rec.Weather,
		Notes:           rec.Notes,
		Verified:        rec.Verified,
		Timestamp:       rec.ReportedAt,
	}
}
