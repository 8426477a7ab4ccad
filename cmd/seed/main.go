// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"mesa/internal/core/id"
	"mesa/internal/infrastructure/storage/postgres"
	"mesa/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := seedAdminUser(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}
	if err := seedUnits(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed units", "error", err)
	}
	if err := seedDefaultWarehouse(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed default warehouse", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@mesa.local"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	var existingID id.ID
	err := pool.QueryRow(ctx,
		`SELECT id FROM sys_users WHERE email = $1`,
		adminEmail,
	).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "email", adminEmail, "user_id", existingID)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check admin exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	now := time.Now().UTC()

	_, err = pool.Exec(ctx, `
		INSERT INTO sys_users (
			id, email, password_hash, full_name, role,
			is_active, failed_login_attempts, created_at, updated_at, version
		)
		VALUES ($1, $2, $3, 'System Admin', 'admin', true, 0, $4, $4, 1)
	`, userID, adminEmail, string(passwordHash), now)
	if err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}

	log.Infow("admin user created", "email", adminEmail, "user_id", userID)
	return nil
}

type unitSeed struct {
	code     string
	name     string
	symbol   string
	unitType string
	isBase   bool
	baseCode string
	factor   decimal.Decimal
}

func seedUnits(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	units := []unitSeed{
		{code: "KG", name: "Kilogram", symbol: "kg", unitType: "weight", isBase: true, factor: decimal.NewFromInt(1)},
		{code: "G", name: "Gram", symbol: "g", unitType: "weight", baseCode: "KG", factor: decimal.NewFromFloat(0.001)},
		{code: "L", name: "Liter", symbol: "l", unitType: "volume", isBase: true, factor: decimal.NewFromInt(1)},
		{code: "ML", name: "Milliliter", symbol: "ml", unitType: "volume", baseCode: "L", factor: decimal.NewFromFloat(0.001)},
		{code: "PCS", name: "Piece", symbol: "pcs", unitType: "piece", isBase: true, factor: decimal.NewFromInt(1)},
	}

	// Base units first so the base_unit_id lookups resolve.
	idsByCode := make(map[string]id.ID, len(units))
	now := time.Now().UTC()

	for _, u := range units {
		var existingID id.ID
		err := pool.QueryRow(ctx,
			`SELECT id FROM cat_units WHERE code = $1 AND deletion_mark = FALSE`,
			u.code,
		).Scan(&existingID)
		if err == nil {
			idsByCode[u.code] = existingID
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("check unit %s: %w", u.code, err)
		}

		unitID := id.New()
		var baseUnitID *string
		if u.baseCode != "" {
			baseID, ok := idsByCode[u.baseCode]
			if !ok {
				return fmt.Errorf("unit %s references unknown base %s", u.code, u.baseCode)
			}
			s := baseID.String()
			baseUnitID = &s
		}

		_, err = pool.Exec(ctx, `
			INSERT INTO cat_units (
				id, code, name, symbol, type, base_unit_id, conversion_factor,
				is_base, deletion_mark, created_at, updated_at, version
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9, $9, 1)
		`, unitID, u.code, u.name, u.symbol, u.unitType, baseUnitID, u.factor, u.isBase, now)
		if err != nil {
			return fmt.Errorf("insert unit %s: %w", u.code, err)
		}

		idsByCode[u.code] = unitID
		log.Infow("unit created", "code", u.code)
	}

	return nil
}

func seedDefaultWarehouse(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	var existingID id.ID
	err := pool.QueryRow(ctx,
		`SELECT id FROM cat_warehouses WHERE is_default = TRUE AND deletion_mark = FALSE`,
	).Scan(&existingID)
	if err == nil {
		log.Infow("default warehouse already exists", "warehouse_id", existingID)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check default warehouse: %w", err)
	}

	warehouseID := id.New()
	now := time.Now().UTC()

	_, err = pool.Exec(ctx, `
		INSERT INTO cat_warehouses (
			id, code, name, type, is_active, allow_negative_stock,
			is_default, deletion_mark, created_at, updated_at, version
		)
		VALUES ($1, 'MAIN', 'Main Storage', 'storage', TRUE, FALSE, TRUE, FALSE, $2, $2, 1)
	`, warehouseID, now)
	if err != nil {
		return fmt.Errorf("insert default warehouse: %w", err)
	}

	log.Infow("default warehouse created", "warehouse_id", warehouseID)
	return nil
}
