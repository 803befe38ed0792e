package app

import (
	"context"
	"fmt"
	"log"

	"docflow/internal/ai"
	"docflow/internal/backend"
	"docflow/internal/catalog"
	"docflow/internal/config"
	"docflow/internal/core"
	"docflow/internal/db"
	"docflow/internal/pdf"
)

// NewFromConfig builds the ApplicationService for the configured store. The
// returned close function releases the database pool, if one was opened.
func NewFromConfig(ctx context.Context, cfg config.Config) (ApplicationService, func(), error) {
	core.PlaceholderUnitPrice = cfg.PlaceholderUnitPrice

	var (
		docs     core.DocumentStore
		leaves   core.LeaveStore
		exporter PDFExporter
		closeFn  = func() {}
	)
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		store := db.NewPgStore(pool)
		docs, leaves = store, store
		closeFn = pool.Close
	default:
		client := backend.New(cfg.BackendURL, cfg.BackendToken, cfg.BackendTimeout)
		docs, leaves, exporter = client, client, client
	}

	var agent ai.AgentService
	if cfg.OpenAIAPIKey != "" {
		agent = ai.NewAgent(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		log.Println("Warning: OPENAI_API_KEY is not set, AI drafting is disabled")
	}

	var products ProductCatalog
	if cfg.CatalogFile != "" {
		c, err := catalog.Load(cfg.CatalogFile)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		log.Printf("catalog: %d product(s) loaded from %s", len(c.List()), cfg.CatalogFile)
		products = c
	}

	svc := NewAppService(
		core.NewDocumentService(docs),
		core.NewLeaveService(leaves),
		pdf.New(cfg.CompanyName),
		exporter,
		agent,
		products,
	)
	return svc, closeFn, nil
}
