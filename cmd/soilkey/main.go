package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"soilkey/internal/config"
	"soilkey/internal/engine"
	"soilkey/internal/explain"
	"soilkey/internal/glossary"
	"soilkey/internal/index"
	"soilkey/internal/nav"
	"soilkey/internal/pipeline"
	"soilkey/internal/report"
	"soilkey/internal/storage"
	"soilkey/internal/taxonomy"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "soilkey",
		Short: "Digital Keys to Soil Taxonomy",
	}
	dataPath string
	dbPath   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataPath, "data", "f", "", "Path to the compiled keys dataset (JSON)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the local dataset snapshot database (SQLite)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(explainCmd)
}

func loadCfg() *config.Config {
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if dataPath != "" {
		cfg.Data.Keys = dataPath
	}
	if dbPath != "" {
		cfg.Data.DB = dbPath
	}
	return cfg
}

// loadDataset prefers the JSON dataset and falls back to the SQLite
// snapshot when the JSON file is absent.
func loadDataset(cfg *config.Config) *taxonomy.Dataset {
	if _, err := os.Stat(cfg.Data.Keys); err == nil {
		ds, err := taxonomy.LoadDataset(cfg.Data.Keys)
		if err != nil {
			log.Fatalf("Failed to load dataset: %v", err)
		}
		return ds
	}

	sqlStore, err := storage.NewSQLiteStore(cfg.Data.DB)
	if err != nil {
		log.Fatalf("No dataset at %s and no snapshot database: %v", cfg.Data.Keys, err)
	}
	var store storage.DatasetStore = sqlStore
	defer store.Close()

	ds, err := store.LoadDataset(context.Background())
	if err != nil {
		log.Fatalf("Failed to load dataset snapshot: %v", err)
	}
	if len(ds.Navigation.Criteria) == 0 {
		log.Fatalf("Snapshot database %s is empty; run 'soilkey build' first", cfg.Data.DB)
	}
	return ds
}

func newSession(ds *taxonomy.Dataset) (*engine.Engine, *nav.Navigator) {
	idx := index.Build(ds)
	eng := engine.New(idx)
	return eng, nav.New(eng, ds)
}

var buildCmd = &cobra.Command{
	Use:   "build [assets-dir]",
	Short: "Compile the source assets into the keys dataset and snapshot database",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadCfg()
		assetsDir := cfg.Data.Assets
		if len(args) > 0 {
			assetsDir = args[0]
		}

		fmt.Printf("Loading assets from %s...\n", assetsDir)
		src, err := pipeline.LoadSources(pipeline.DefaultAssetPaths(assetsDir))
		if err != nil {
			log.Fatalf("Failed to load assets: %v", err)
		}

		fmt.Println("Building clause hierarchy...")
		ds, err := pipeline.Build(src)
		if err != nil {
			log.Fatalf("Build failed: %v", err)
		}

		fmt.Println("Linkifying glossary terms...")
		stats := glossary.LinkifyDataset(ds)
		fmt.Printf("Linkified %d criteria (%d shared-suffix lists, %d prefix links)\n",
			stats.Criteria, stats.Lists, stats.PrefixLinks)

		if err := taxonomy.SaveDataset(ds, cfg.Data.Keys); err != nil {
			log.Fatalf("Failed to write dataset: %v", err)
		}
		fmt.Printf("Wrote %s (%d criteria, %d outcomes, %d glossary terms)\n",
			cfg.Data.Keys, len(ds.Navigation.Criteria), len(ds.Outcomes), len(ds.Glossary))

		store, err := storage.NewSQLiteStore(cfg.Data.DB)
		if err != nil {
			log.Fatalf("Failed to open snapshot database: %v", err)
		}
		defer store.Close()
		if err := store.SaveDataset(context.Background(), ds); err != nil {
			log.Fatalf("Failed to save snapshot: %v", err)
		}
		fmt.Printf("Snapshot saved to %s\n", cfg.Data.DB)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the compiled dataset against the schema and integrity rules",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadCfg()

		data, err := os.ReadFile(cfg.Data.Keys)
		if err != nil {
			log.Fatalf("Failed to read dataset: %v", err)
		}
		if err := taxonomy.ValidateBytes(data); err != nil {
			log.Fatalf("Validation failed: %v", err)
		}
		fmt.Println("Schema validation passed")

		ds, err := taxonomy.LoadDataset(cfg.Data.Keys)
		if err != nil {
			log.Fatalf("Failed to load dataset: %v", err)
		}
		rep := taxonomy.CheckIntegrity(ds)
		for _, d := range rep.DuplicateIDs {
			fmt.Printf("  duplicate identity: %s\n", d)
		}
		for _, d := range rep.DanglingParents {
			fmt.Printf("  dangling parent: %s\n", d)
		}
		for _, d := range rep.MissingAncestors {
			fmt.Printf("  ancestry gap: %s\n", d)
		}
		if rep.Clean() {
			fmt.Println("Integrity checks passed")
		} else {
			fmt.Println("Integrity anomalies found (tolerated at runtime, listed above)")
		}
		fmt.Printf("Criteria: %d, outcomes: %d, glossary: %d\n",
			len(ds.Navigation.Criteria), len(ds.Outcomes), len(ds.Glossary))
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Walk the classification key interactively",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadCfg()
		ds := loadDataset(cfg)
		eng, n := newSession(ds)
		runInteractive(ds, eng, n)
	},
}

var reportCmd = &cobra.Command{
	Use:   "report [checked-id ...]",
	Short: "Render a classification report for a set of checked criteria",
	Long: "Marks each CODE:CLAUSE argument as checked and renders the " +
		"resulting classification as Markdown on stdout.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadCfg()
		ds := loadDataset(cfg)
		eng, n := newSession(ds)

		for _, arg := range args {
			id, err := parseCriterionID(arg)
			if err != nil {
				log.Fatalf("Bad criterion id %q: %v", arg, err)
			}
			eng.MarkChecked(id)
		}

		gen := report.NewMarkdownGenerator(eng, n, ds)
		fmt.Print(gen.Render())
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain [checked-id ...]",
	Short: "Explain a classification in plain language (requires an API key)",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadCfg()
		if cfg.AI.APIKey == "" {
			log.Fatal("AI API key not configured (set SOILKEY_API_KEY or ai.api_key in config.yaml)")
		}

		ds := loadDataset(cfg)
		eng, n := newSession(ds)

		var checked []taxonomy.Criterion
		for _, arg := range args {
			id, err := parseCriterionID(arg)
			if err != nil {
				log.Fatalf("Bad criterion id %q: %v", arg, err)
			}
			eng.MarkChecked(id)
			if c, ok := eng.Index().Lookup(id); ok {
				checked = append(checked, c)
			}
		}

		ctx := context.Background()
		explainer, err := explain.NewGeminiExplainer(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			log.Fatalf("Failed to create explainer: %v", err)
		}

		text, err := explainer.ExplainPath(ctx, n.ClassificationPath(), checked)
		if err != nil {
			log.Fatalf("Explanation failed: %v", err)
		}
		fmt.Println(text)
	},
}
