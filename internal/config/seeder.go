package config

import (
	"time"

	"cmms-engine/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, log logrus.FieldLogger) *Seeder {
	return &Seeder{db: db, log: log}
}

// Run executes all seeders. A failing seeder is logged and skipped.
// This is for development only; production reference data is owned by the
// host application.
func (s *Seeder) Run() error {
	s.log.Info("🌱 Running database seeders...")

	seeders := []struct {
		name string
		fn   func() error
	}{
		{"assets", s.seedAssets},
		{"technicians", s.seedTechnicians},
		{"parts", s.seedParts},
	}
	for _, seeder := range seeders {
		if err := seeder.fn(); err != nil {
			s.log.WithError(err).Warnf("⚠️ %s seeder skipped", seeder.name)
		}
	}

	s.log.Info("✅ Database seeding completed")
	return nil
}

// empty reports whether a table has no rows yet
func (s *Seeder) empty(model interface{}) (bool, error) {
	var count int64
	if err := s.db.Model(model).Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

func (s *Seeder) seedAssets() error {
	if ok, err := s.empty(&models.Asset{}); err != nil || !ok {
		return err
	}

	assets := []models.Asset{
		{ID: "asset-pump-01", Code: "PMP-01", Name: "Cooling water pump", Location: "Plant A", IsActive: true},
		{ID: "asset-comp-01", Code: "CMP-01", Name: "Air compressor", Location: "Plant A", IsActive: true},
		{ID: "asset-gen-01", Code: "GEN-01", Name: "Standby generator", Location: "Utility building", IsActive: true},
	}
	if err := s.db.Create(&assets).Error; err != nil {
		return err
	}
	s.log.WithField("count", len(assets)).Info("✅ Assets seeded")
	return nil
}

func (s *Seeder) seedTechnicians() error {
	if ok, err := s.empty(&models.User{}); err != nil || !ok {
		return err
	}

	users := []models.User{
		{ID: "user-manager-01", Email: "manager@cmms.local", FullName: "Maintenance Manager", Role: "MANAGER", IsActive: true},
		{ID: "user-tech-01", Email: "tech1@cmms.local", FullName: "First Technician", Role: "TECHNICIAN", IsActive: true},
		{ID: "user-tech-02", Email: "tech2@cmms.local", FullName: "Second Technician", Role: "TECHNICIAN", IsActive: true},
		{ID: "user-stock-01", Email: "stores@cmms.local", FullName: "Stores Keeper", Role: "STOCK_MANAGER", IsActive: true},
	}
	if err := s.db.Create(&users).Error; err != nil {
		return err
	}
	s.log.WithField("count", len(users)).Info("✅ Users seeded")
	return nil
}

func (s *Seeder) seedParts() error {
	if ok, err := s.empty(&models.Part{}); err != nil || !ok {
		return err
	}

	now := time.Now().UTC()
	parts := []models.Part{
		{ID: "part-seal-01", SKU: "SEAL-40", Name: "Mechanical seal 40mm", QuantityOnHand: 12, MinimumStock: 4, UnitPrice: decimal.RequireFromString("85.00")},
		{ID: "part-filt-01", SKU: "FLT-100", Name: "Oil filter", QuantityOnHand: 40, MinimumStock: 10, UnitPrice: decimal.RequireFromString("12.50")},
		{ID: "part-belt-01", SKU: "BLT-A42", Name: "V-belt A42", QuantityOnHand: 8, MinimumStock: 2, UnitPrice: decimal.RequireFromString("23.90")},
	}
	for i := range parts {
		parts[i].Version = 1
		parts[i].CreatedAt = now
		parts[i].UpdatedAt = now
	}
	if err := s.db.Create(&parts).Error; err != nil {
		return err
	}
	s.log.WithField("count", len(parts)).Info("✅ Parts seeded")
	return nil
}
