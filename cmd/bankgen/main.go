// bankgen builds the synthetic item bank: it generates items for every
// cognitive module and difficulty tier, reports counts, and either exports
// the bank as JSON or loads it into the Postgres master table.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skandaka/neuravia-adaptive-cognitive-test/internal/config"
	"github.com/skandaka/neuravia-adaptive-cognitive-test/internal/itembank"
)

func main() {
	var (
		out  = flag.String("out", "", "Write the generated bank to this JSON file")
		load = flag.Bool("load", false, "Load the generated bank into Postgres")
		seed = flag.Int64("seed", 0, "Random seed for item content (0 = time-based)")
	)
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load("configs/.env")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	gen := itembank.NewGenerator(itembank.GeneratorConfig{
		Modules:   cfg.Bank.Modules,
		PerModule: cfg.Bank.PerModule,
	}, cfg.Adaptive.EngineConfig().Tuning, rng)

	items := gen.Generate()
	log.Info().Int("total", len(items)).Int64("seed", *seed).Msg("item bank generated")
	for module, tiers := range itembank.Statistics(items) {
		total := 0
		for _, n := range tiers {
			total += n
		}
		log.Info().Str("module", module).Int("items", total).Msg("module bank")
	}

	if *out != "" {
		if err := itembank.ExportJSON(*out, items); err != nil {
			log.Fatal().Err(err).Str("path", *out).Msg("export failed")
		}
		log.Info().Str("path", *out).Msg("bank exported")
	}

	if *load {
		connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)
		pool, err := pgxpool.New(ctx, connString)
		if err != nil {
			log.Fatal().Err(err).Msg("connect postgres")
		}
		defer pool.Close()

		repo := itembank.NewRepository(pool)
		n, err := repo.LoadMaster(ctx, items)
		if err != nil {
			log.Fatal().Err(err).Msg("load master bank")
		}
		log.Info().Int64("rows", n).Msg("bank loaded into postgres")
	}

	if *out == "" && !*load {
		log.Warn().Msg("neither -out nor -load given; bank discarded after reporting")
	}
}
