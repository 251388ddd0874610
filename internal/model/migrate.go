package model

import (
	"fmt"

	"gorm.io/gorm"
)

// OverlapConstraintName is reported by the database when two active
// bookings of one resource would overlap.
const OverlapConstraintName = "exclude_overlapping_bookings_per_resource"

// AutoMigrate migrates every entity of the booking core and installs the
// overlap backstop for the active dialect.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Merchant{},
		&Resource{},
		&AvailabilityRule{},
		&AvailabilityOverride{},
		&ProductVariant{},
		&Customer{},
		&VariantResource{},
		&Cart{},
		&CartLine{},
		&Warehouse{},
		&Stock{},
		&Voucher{},
		&VoucherRedemption{},
		&Booking{},
		&BookingEvent{},
	); err != nil {
		return err
	}

	switch db.Dialector.Name() {
	case "postgres":
		return migratePostgresOverlap(db)
	case "sqlite":
		return migrateSQLiteOverlap(db)
	default:
		return nil
	}
}

func migratePostgresOverlap(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		return fmt.Errorf("enable btree_gist: %w", err)
	}
	stmt := fmt.Sprintf(`
DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%[1]s') THEN
		ALTER TABLE bookings ADD CONSTRAINT %[1]s
			EXCLUDE USING gist (
				resource_id WITH =,
				tstzrange(starts_at, ends_at, '[)') WITH &&
			)
			WHERE (status IN ('HOLD', 'CONFIRMED'));
	END IF;
END
$$;`, OverlapConstraintName)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("add %s: %w", OverlapConstraintName, err)
	}
	return nil
}

// SQLite has no exclusion constraints; triggers abort with the same name.
func migrateSQLiteOverlap(db *gorm.DB) error {
	stmts := []string{
		fmt.Sprintf(`
CREATE TRIGGER IF NOT EXISTS bookings_no_overlap_insert
BEFORE INSERT ON bookings
WHEN NEW.status IN ('HOLD', 'CONFIRMED')
BEGIN
	SELECT RAISE(ABORT, '%s')
	WHERE EXISTS (
		SELECT 1 FROM bookings b
		WHERE b.resource_id = NEW.resource_id
			AND b.status IN ('HOLD', 'CONFIRMED')
			AND b.starts_at < NEW.ends_at
			AND NEW.starts_at < b.ends_at
	);
END;`, OverlapConstraintName),
		fmt.Sprintf(`
CREATE TRIGGER IF NOT EXISTS bookings_no_overlap_update
BEFORE UPDATE OF status, starts_at, ends_at, resource_id ON bookings
WHEN NEW.status IN ('HOLD', 'CONFIRMED')
BEGIN
	SELECT RAISE(ABORT, '%s')
	WHERE EXISTS (
		SELECT 1 FROM bookings b
		WHERE b.id <> NEW.id
			AND b.resource_id = NEW.resource_id
			AND b.status IN ('HOLD', 'CONFIRMED')
			AND b.starts_at < NEW.ends_at
			AND NEW.starts_at < b.ends_at
	);
END;`, OverlapConstraintName),
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create overlap trigger: %w", err)
		}
	}
	return nil
}
