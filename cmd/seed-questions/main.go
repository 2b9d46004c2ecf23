package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/stemsi/exstem-practice/internal/config"
	"github.com/stemsi/exstem-practice/internal/database"
	"github.com/stemsi/exstem-practice/internal/logger"
	"github.com/stemsi/exstem-practice/internal/questionpack"
	"github.com/stemsi/exstem-practice/internal/repository"
)

func main() {
	var dir string
	var dryRun bool
	flag.StringVar(&dir, "dir", "questionpacks", "Directory of YAML question packs")
	flag.BoolVar(&dryRun, "dry-run", false, "Validate packs without writing")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	catalog, err := questionpack.LoadDir(dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", dir).Msg("Failed to load question packs")
	}
	questions := catalog.Questions()
	log.Info().Int("questions", len(questions)).Str("dir", dir).Msg("Question packs loaded")
	if dryRun {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	repo := repository.NewQuestionRepository(pool)
	seeded := 0
	for i := range questions {
		q := &questions[i]
		packID := q.ID
		if err := repo.UpsertByExternalID(ctx, packID, q); err != nil {
			log.Error().Err(err).Str("pack_id", packID).Msg("Failed to upsert question")
			continue
		}
		seeded++
		log.Debug().Str("pack_id", packID).Str("id", q.ID).Msg("Question upserted")
	}

	log.Info().Int("seeded", seeded).Int("total", len(questions)).Msg("Seeding finished")
}
