package ingest

import (
	"context"
	"fmt"
	"log"

	"competetrack/internal/database"
)

// Result reports the outcome of one ingest run.
type Result struct {
	Processed  int
	Added      int
	Duplicates int
}

// Service runs the pipeline for a competitor and persists the output.
type Service struct {
	db   *database.DB
	orch *Orchestrator
}

// NewService binds an orchestrator to a store.
func NewService(db *database.DB, orch *Orchestrator) *Service {
	return &Service{db: db, orch: orch}
}

// Run ingests the competitor's feed. Already-stored URLs are counted as
// duplicates and left untouched; a store failure aborts the run.
func (s *Service) Run(ctx context.Context, c database.Competitor) (Result, error) {
	var res Result
	for _, item := range s.orch.Gather(ctx, c.Name, c.FeedURL) {
		res.Processed++

		id, err := s.db.InsertArticle(database.Article{
			Competitor: c.Name,
			URL:        item.URL,
			Title:      item.Title,
			Content:    item.Content,
			Summary:    item.Summary.Encode(),
		})
		if err != nil {
			return res, fmt.Errorf("store article %s: %w", item.URL, err)
		}
		if id == 0 {
			res.Duplicates++
			continue
		}
		res.Added++
	}
	if res.Processed > 0 {
		log.Printf("ingest: %s processed=%d added=%d duplicates=%d", c.Name, res.Processed, res.Added, res.Duplicates)
	}
	return res, nil
}
