package database

func (d *Database) RunMigrations() error {
	if err := d.db.AutoMigrate(&reportRecord{}); err != nil {
		return err
	}

	// Create spatial index on coordinates
	err := d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_price_reports_coordinates
		ON price_reports(latitude, longitude);
	`).Error
	if err != nil {
		return err
	}

	return d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_price_reports_product_time
		ON price_reports(product_id, reported_at);
	`).Error
}
