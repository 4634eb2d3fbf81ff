package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/foxxcyber/fresh-feed/internal/config"
	"github.com/foxxcyber/fresh-feed/internal/database"
	"github.com/foxxcyber/fresh-feed/internal/expiry"
	"github.com/foxxcyber/fresh-feed/internal/logging"
	"github.com/foxxcyber/fresh-feed/internal/services"
)

const dateLayout = "2006-01-02"

// Correction is one row of the corrections CSV:
// product,original,new,category,reason
type Correction struct {
	Product  string
	Original time.Time
	New      time.Time
	Category string
	Reason   string
}

func main() {
	// Command line flags
	userID := flag.Int("user", 0, "User ID whose learning store receives the corrections")
	localFile := flag.String("file", "", "CSV file of corrections (product,original,new,category,reason)")
	dryRun := flag.Bool("dry-run", false, "Preview changes without writing to the learning store")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: "console"})

	if *userID <= 0 || *localFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	file, err := os.Open(*localFile)
	if err != nil {
		logging.Fatal().Err(err).Str("file", *localFile).Msg("failed to open corrections file")
	}
	defer file.Close()

	corrections, skipped, err := parseCorrections(file)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to parse corrections")
	}
	logging.Info().Int("corrections", len(corrections)).Int("skipped", skipped).Msg("parsed corrections file")

	if *dryRun {
		logging.Info().Msg("DRY RUN - no changes will be made")
		printPreview(corrections, 20)
		return
	}

	ctx := context.Background()

	var db *database.DB
	if cfg.LearningStore == config.StorePostgres {
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		if err := database.RunMigrations(db); err != nil {
			logging.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	backend, err := services.OpenLearningBackend(ctx, cfg, db)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open learning store")
	}
	defer backend.Close()

	svc := expiry.NewRegistry(backend.Store).ForUser(*userID)
	for _, c := range corrections {
		svc.RecordAdjustment(ctx, c.Product, c.Original, c.New, c.Category, c.Reason)
	}

	stats := svc.Statistics(ctx)
	logging.Info().
		Int("user_id", *userID).
		Int("recorded", len(corrections)).
		Int("total_adjustments", stats.TotalAdjustments).
		Int("learned_products", stats.LearnedProducts).
		Msg("import complete")
}

// parseCorrections reads the corrections CSV. A header row starting with
// "product" is skipped, as are rows that do not parse.
func parseCorrections(reader io.Reader) ([]Correction, int, error) {
	csvReader := csv.NewReader(bufio.NewReader(reader))
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	var (
		corrections []Correction
		skipped     int
		line        int
	)

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", line, err)
		}

		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "product") {
			continue
		}

		c, err := parseRecord(record)
		if err != nil {
			logging.Warn().Int("line", line).Err(err).Msg("skipping row")
			skipped++
			continue
		}
		corrections = append(corrections, c)
	}

	return corrections, skipped, nil
}

func parseRecord(record []string) (Correction, error) {
	if len(record) < 3 {
		return Correction{}, fmt.Errorf("want at least 3 columns, got %d", len(record))
	}

	field := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	c := Correction{
		Product:  field(0),
		Category: field(3),
		Reason:   field(4),
	}
	if c.Product == "" {
		return Correction{}, fmt.Errorf("empty product name")
	}

	var err error
	if c.Original, err = time.ParseInLocation(dateLayout, field(1), time.UTC); err != nil {
		return Correction{}, fmt.Errorf("original date: %w", err)
	}
	if c.New, err = time.ParseInLocation(dateLayout, field(2), time.UTC); err != nil {
		return Correction{}, fmt.Errorf("new date: %w", err)
	}
	return c, nil
}

// printPreview shows a sample of the corrections
func printPreview(corrections []Correction, limit int) {
	fmt.Printf("\nPreview (first %d corrections):\n", limit)
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("%-24s %-12s %-12s %6s %s\n", "PRODUCT", "ORIGINAL", "NEW", "DAYS", "CATEGORY")
	fmt.Println(strings.Repeat("-", 70))

	for i, c := range corrections {
		if i >= limit {
			fmt.Printf("... and %d more\n", len(corrections)-limit)
			break
		}
		fmt.Printf("%-24s %-12s %-12s %+6d %s\n",
			c.Product, c.Original.Format(dateLayout), c.New.Format(dateLayout),
			expiry.DaysBetween(c.Original, c.New), c.Category)
	}
}
