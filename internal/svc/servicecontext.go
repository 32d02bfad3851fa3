package svc

import (
	"log"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"quantbt/internal/config"
	"quantbt/internal/repo"
	"quantbt/pkg/batch"
	"quantbt/pkg/journal"
	"quantbt/pkg/walkforward"
)

type ServiceContext struct {
	Config config.Config

	Journal   *journal.Writer
	Artifacts *walkforward.ArtifactWriter

	WalkForwardConfig *walkforward.Config
	BatchConfig       *batch.Config

	// Optional DB access, wired only when a Postgres DSN is configured.
	DBConn sqlx.SqlConn
	Repos  *repo.Set
}

func NewServiceContext(c config.Config) *ServiceContext {
	artifacts, err := walkforward.NewArtifactWriter(c.ArtifactDir)
	if err != nil {
		log.Fatalf("failed to init artifact writer: %v", err)
	}

	svc := &ServiceContext{
		Config:    c,
		Journal:   journal.NewWriter(c.JournalDir),
		Artifacts: artifacts,
	}

	if c.WalkForward.Value != nil {
		svc.WalkForwardConfig = c.WalkForward.Value
	}
	if c.Batch.Value != nil {
		svc.BatchConfig = c.Batch.Value
	}

	// Results persistence is optional; runs still journal to disk without it.
	if c.Postgres.DSN != "" {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		svc.DBConn = conn
		repos, err := repo.New(repo.Dependencies{DBConn: conn})
		if err != nil {
			log.Fatalf("failed to init repositories: %v", err)
		}
		svc.Repos = repos
	}
	return svc
}
