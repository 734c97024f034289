package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// catalogEntry is one service of the marketplace catalog
type catalogEntry struct {
	Slug            string
	Name            string
	Description     string
	Category        string
	BasePriceMinor  int64
	DurationMinutes int
	SortOrder       int
}

// seedServiceTypes inserts the default service catalog. Safe to run more than
// once: it skips insertion when the table already has rows.
func seedServiceTypes() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "postgres")
	dbPassword := getEnv("DB_PASSWORD", "")
	dbName := getEnv("DB_NAME", "carcare_marketplace_db")
	dbSSLMode := getEnv("DB_SSL_MODE", "disable")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("✅ Successfully connected to database")

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM service_types").Scan(&count); err != nil {
		log.Fatal("Failed to check service_types count:", err)
	}
	if count > 0 {
		log.Printf("⚠️  Service types already exist (%d found). Skipping insertion.", count)
		return
	}

	entries := []catalogEntry{
		{
			Slug:            "basic_wash",
			Name:            "Basic Wash",
			Description:     "Exterior wash with foam and hand dry.",
			Category:        "wash",
			BasePriceMinor:  29900,
			DurationMinutes: 30,
			SortOrder:       1,
		},
		{
			Slug:            "full_wash",
			Name:            "Full Wash",
			Description:     "Exterior wash plus interior vacuum, dashboard wipe, and glass cleaning.",
			Category:        "wash",
			BasePriceMinor:  49900,
			DurationMinutes: 60,
			SortOrder:       2,
		},
		{
			Slug:            "premium_detailing",
			Name:            "Premium Detailing",
			Description:     "Deep clean with clay bar treatment, wax, and interior shampoo.",
			Category:        "wash",
			BasePriceMinor:  149900,
			DurationMinutes: 180,
			SortOrder:       3,
		},
		{
			Slug:            "oil_change",
			Name:            "Oil Change",
			Description:     "Engine oil and filter replacement at your doorstep.",
			Category:        "mechanic",
			BasePriceMinor:  99900,
			DurationMinutes: 45,
			SortOrder:       10,
		},
		{
			Slug:            "battery_replacement",
			Name:            "Battery Replacement",
			Description:     "On-site battery testing and replacement with disposal of the old unit.",
			Category:        "mechanic",
			BasePriceMinor:  79900,
			DurationMinutes: 30,
			SortOrder:       11,
		},
		{
			Slug:            "brake_service",
			Name:            "Brake Service",
			Description:     "Brake pad inspection and replacement, front or rear axle.",
			Category:        "mechanic",
			BasePriceMinor:  159900,
			DurationMinutes: 90,
			SortOrder:       12,
		},
		{
			Slug:            "tyre_change",
			Name:            "Tyre Change",
			Description:     "Flat tyre replacement or seasonal tyre swap, balancing included.",
			Category:        "mechanic",
			BasePriceMinor:  59900,
			DurationMinutes: 40,
			SortOrder:       13,
		},
		{
			Slug:            "general_inspection",
			Name:            "General Inspection",
			Description:     "Multi-point vehicle health check with a written report.",
			Category:        "mechanic",
			BasePriceMinor:  49900,
			DurationMinutes: 60,
			SortOrder:       14,
		},
	}

	insertSQL := `
		INSERT INTO service_types (slug, name, description, category, base_price_minor, duration_minutes, is_active, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	now := time.Now()
	inserted := 0
	for _, e := range entries {
		_, err := db.Exec(insertSQL,
			e.Slug,
			e.Name,
			e.Description,
			e.Category,
			e.BasePriceMinor,
			e.DurationMinutes,
			true,
			e.SortOrder,
			now,
			now,
		)
		if err != nil {
			log.Printf("❌ Failed to insert service type '%s': %v", e.Slug, err)
		} else {
			log.Printf("✅ Successfully inserted: %s (%s)", e.Name, e.Category)
			inserted++
		}
	}

	log.Printf("🎉 Insertion completed! %d out of %d service types inserted successfully", inserted, len(entries))
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
