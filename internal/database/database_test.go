package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"agrimap/server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "agrimap_test.db"))
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })
	return db
}

var base = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func testReport(id, product string, offset time.Duration) *models.PriceReport {
	return &models.PriceReport{
		ID:              id,
		Role:            models.RoleFarmer,
		Product:         models.Product{ID: product, Name: "Tomato", Category: "vegetables", Unit: "kg"},
		Price:           42.5,
		Location:        models.Location{Latitude: 14.0696, Longitude: 121.3256, Barangay: "San Roque", Municipality: "San Pablo", Province: "Laguna"},
		TrafficStatus:   models.TrafficModerate,
		MarketCondition: models.MarketHighDemand,
		Weather:         &models.Weather{Temperature: 31.5, Condition: "Sunny", Humidity: 70, Description: "Sunny"},
		Notes:           "Fresh from farm",
		Timestamp:       base.Add(offset),
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.RunMigrations())
}

func TestInsertAndListReports(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	in := testReport("r1", "tomato", time.Hour)
	require.NoError(t, db.InsertReports(ctx, []*models.PriceReport{in}))

	reports, err := db.ListReports(ctx, models.ReportFilter{})
	require.NoError(t, err)
	require.Len(t, reports, 1)

	got := reports[0]
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, models.RoleFarmer, got.Role)
	assert.Equal(t, in.Product, got.Product)
	assert.Equal(t, in.Location, got.Location)
	assert.Equal(t, in.Weather, got.Weather, "auxiliary context is carried through")
	assert.Equal(t, in.Notes, got.Notes)
	assert.True(t, in.Timestamp.Equal(got.Timestamp))
}

func TestInsertReports_Duplicate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertReports(ctx, []*models.PriceReport{testReport("dup", "tomato", 0)}))
	err := db.InsertReports(ctx, []*models.PriceReport{testReport("other", "tomato", 0), testReport("dup", "tomato", 0)})
	assert.ErrorIs(t, err, ErrDuplicateReport)

	count, err := db.CountReports(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "failed batch is rolled back")
}

func TestListReports_Filters(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	var batch []*models.PriceReport
	for i := 0; i < 10; i++ {
		product := "tomato"
		if i%2 == 1 {
			product = "garlic"
		}
		batch = append(batch, testReport(fmt.Sprintf("r%02d", i), product, time.Duration(i)*time.Hour))
	}
	require.NoError(t, db.InsertReports(ctx, batch))

	tests := []struct {
		name     string
		filter   models.ReportFilter
		expected []string
	}{
		{
			name:     "Newest first with limit",
			filter:   models.ReportFilter{Limit: 3},
			expected: []string{"r09", "r08", "r07"},
		},
		{
			name:     "Product filter",
			filter:   models.ReportFilter{ProductID: "garlic", Limit: 2},
			expected: []string{"r09", "r07"},
		},
		{
			name:     "Time window",
			filter:   models.ReportFilter{Since: base.Add(2 * time.Hour), Until: base.Add(5 * time.Hour)},
			expected: []string{"r04", "r03", "r02"},
		},
		{
			name:     "Window in another zone",
			filter:   models.ReportFilter{Since: base.Add(8 * time.Hour).In(time.FixedZone("PHT", 8*3600))},
			expected: []string{"r09", "r08"},
		},
		{
			name:     "Unknown product",
			filter:   models.ReportFilter{ProductID: "durian"},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports, err := db.ListReports(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(reports))
			for _, r := range reports {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestDeleteReportsBefore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertReports(ctx, []*models.PriceReport{
		testReport("old", "tomato", -48*time.Hour),
		testReport("new", "tomato", 0),
	}))

	removed, err := db.DeleteReportsBefore(ctx, base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	reports, err := db.ListReports(ctx, models.ReportFilter{})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "new", reports[0].ID)
}
