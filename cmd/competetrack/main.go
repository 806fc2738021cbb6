package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"competetrack/internal/config"
	"competetrack/internal/database"
	"competetrack/internal/digest"
	"competetrack/internal/extract"
	"competetrack/internal/feed"
	"competetrack/internal/ingest"
	"competetrack/internal/server"
	"competetrack/internal/summarize"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	// Secrets like the SMTP password come from the environment; a local
	// .env is a convenience, not a requirement.
	godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "competetrack",
	Short:   "Competitor content tracking",
	Long:    "CompeteTrack watches competitor feeds, summarizes new articles with an LLM, and surfaces high-priority changes through a dashboard API and a weekly email digest.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(competitorsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("competetrack", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/competetrack/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure competitors, the LLM provider, and the digest.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Printf("Competitors: %d\n", stats.Competitors)
		fmt.Println("Articles:")
		fmt.Printf("  Total: %d\n", stats.TotalArticles)
		fmt.Printf("  Pending review: %d\n", stats.PendingArticles)
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := seedCompetitors(db); err != nil {
			return err
		}

		digestSvc := newDigestService(db)
		if cfg.Digest.Enabled {
			scheduler := digest.NewScheduler(digestSvc, cfg.Digest.Day)
			scheduler.Start()
			defer scheduler.Stop()
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := server.New(db, newIngestService(db), digestSvc, cfg.Digest.Recipient)
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return srv.Run(port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (overrides config)")
}

// --- fetch command ---

var fetchCompetitor string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and summarize competitor feeds",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := seedCompetitors(db); err != nil {
			return err
		}

		var competitors []database.Competitor
		if fetchCompetitor != "" {
			comp, err := db.GetCompetitor(fetchCompetitor)
			if err != nil {
				return err
			}
			if comp == nil {
				return fmt.Errorf("competitor %q not found", fetchCompetitor)
			}
			competitors = []database.Competitor{*comp}
		} else {
			competitors, err = db.ListCompetitors()
			if err != nil {
				return err
			}
		}

		svc := newIngestService(db)
		ctx := context.Background()
		for _, comp := range competitors {
			fmt.Printf("Fetching %s...\n", comp.Name)
			res, err := svc.Run(ctx, comp)
			if err != nil {
				fmt.Printf("  Error: %v\n", err)
				continue
			}
			fmt.Printf("  Processed %d, added %d, skipped %d duplicates\n", res.Processed, res.Added, res.Duplicates)
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchCompetitor, "competitor", "", "Fetch a single competitor by name")
}

// --- digest command ---

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Send the weekly digest email now",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		count, err := newDigestService(db).Run(time.Now().UTC())
		if err != nil {
			return err
		}
		if count == 0 {
			fmt.Println("No high-priority insights in the last 7 days; nothing sent.")
			return nil
		}
		fmt.Printf("Digest with %d insights sent to %s\n", count, cfg.Digest.Recipient)
		return nil
	},
}

// --- competitors command ---

var competitorsCmd = &cobra.Command{
	Use:   "competitors",
	Short: "Manage tracked competitors",
}

var competitorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked competitors",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		competitors, err := db.ListCompetitors()
		if err != nil {
			return err
		}
		if len(competitors) == 0 {
			fmt.Println("No competitors tracked. Add one with: competetrack competitors add")
			return nil
		}

		fmt.Println("Tracked competitors:")
		fmt.Println()
		for _, comp := range competitors {
			fmt.Printf("  %s\n", comp.Name)
			fmt.Printf("    Website: %s\n", comp.Website)
			fmt.Printf("    Feed:    %s\n", comp.FeedURL)
			if comp.Description != "" {
				fmt.Printf("    %s\n", comp.Description)
			}
		}
		return nil
	},
}

var competitorsAddCmd = &cobra.Command{
	Use:   "add [name] [website] [feed-url]",
	Short: "Add a competitor",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if _, err := db.InsertCompetitor(args[0], args[1], args[2], ""); err != nil {
			return err
		}
		fmt.Printf("Added competitor: %s\n", args[0])
		return nil
	},
}

var competitorsRemoveCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Remove a competitor and its articles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		found, err := db.DeleteCompetitor(args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("competitor %q not found", args[0])
		}
		fmt.Printf("Removed competitor: %s\n", args[0])
		return nil
	},
}

func init() {
	competitorsCmd.AddCommand(competitorsListCmd)
	competitorsCmd.AddCommand(competitorsAddCmd)
	competitorsCmd.AddCommand(competitorsRemoveCmd)
}

// --- wiring helpers ---

func openDB() (*database.DB, error) {
	// Open creates the parent directory itself.
	return database.Open(cfg.DatabasePath())
}

func seedCompetitors(db *database.DB) error {
	for _, seed := range cfg.Competitors {
		if err := db.SeedCompetitor(seed.Name, seed.Website, seed.RSS, seed.Description); err != nil {
			return fmt.Errorf("seeding competitor %s: %w", seed.Name, err)
		}
	}
	return nil
}

func newIngestService(db *database.DB) *ingest.Service {
	timeout := time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second
	reader := feed.NewReader(&http.Client{Timeout: timeout})
	extractor := extract.New(timeout)
	provider := summarize.CreateProvider(
		cfg.Summarize.Provider,
		cfg.Summarize.Model,
		cfg.Summarize.OllamaURL,
		cfg.Summarize.OpenAIModel,
		cfg.Summarize.APIKeyEnv,
	)
	orch := ingest.NewOrchestrator(reader, extractor, summarize.New(provider), cfg.Fetch.RSSLimit, cfg.Fetch.Workers)
	return ingest.NewService(db, orch)
}

func newDigestService(db *database.DB) *digest.Service {
	mailer := &digest.Mailer{
		Host:      cfg.Digest.SMTP.Host,
		Port:      cfg.Digest.SMTP.Port,
		Sender:    cfg.Digest.SMTP.Sender,
		Username:  cfg.Digest.SMTP.Username,
		Password:  os.Getenv(cfg.Digest.SMTP.PasswordEnv),
		Recipient: cfg.Digest.Recipient,
	}
	return digest.NewService(db, mailer)
}
