package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/saborlabs/saborai/ai/agents/specialist"
	"github.com/saborlabs/saborai/ai/agents/supervisor"
	"github.com/saborlabs/saborai/ai/embedding"
	"github.com/saborlabs/saborai/ai/llm"
	"github.com/saborlabs/saborai/ai/metrics"
	"github.com/saborlabs/saborai/ai/rag"
	"github.com/saborlabs/saborai/ingestion"
	"github.com/saborlabs/saborai/internal/profile"
	"github.com/saborlabs/saborai/internal/version"
	"github.com/saborlabs/saborai/server"
	"github.com/saborlabs/saborai/store"
	"github.com/saborlabs/saborai/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "saborai",
	Short: "An AI assistant for restaurant menus. Ingest a menu, then ask about nutrition, combos, and copy quality.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Best effort; absence of a .env file is fine.
		_ = godotenv.Load()
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		instanceProfile, err := loadProfile()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		storeInstance, err := openStore(ctx, instanceProfile)
		if err != nil {
			return err
		}

		llmService, embeddingService, err := newAIServices(instanceProfile)
		if err != nil {
			return err
		}
		go llmService.Warmup(ctx)

		exporter := metrics.NewExporter(metrics.DefaultConfig())
		retriever := rag.NewRetriever(storeInstance, embeddingService, rag.Config{
			K:       instanceProfile.RetrieverK,
			KScoped: instanceProfile.RetrieverKScoped,
		})
		sup := supervisor.New(llmService, map[supervisor.Capability]supervisor.Agent{
			supervisor.CapabilityNutrition:      specialist.NewNutrition(llmService, retriever, exporter),
			supervisor.CapabilityRecommendation: specialist.NewRecommendation(llmService, retriever, exporter),
			supervisor.CapabilityQuality:        specialist.NewQuality(llmService, retriever, exporter),
		}, exporter)
		pipeline := ingestion.NewPipeline(storeInstance, embeddingService, instanceProfile.ChunkSize, instanceProfile.ChunkOverlap)

		s, err := server.NewServer(ctx, instanceProfile, storeInstance, sup, pipeline, exporter)
		if err != nil {
			return fmt.Errorf("create server: %w", err)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return s.Start(gctx)
		})
		g.Go(func() error {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-sig:
			case <-gctx.Done():
			}
			s.Shutdown(context.Background())
			cancel()
			return nil
		})

		printGreetings(instanceProfile)
		return g.Wait()
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a .txt or .md menu file into the store and exit.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		instanceProfile, err := loadProfile()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		storeInstance, err := openStore(ctx, instanceProfile)
		if err != nil {
			return err
		}
		defer storeInstance.Close()

		_, embeddingService, err := newAIServices(instanceProfile)
		if err != nil {
			return err
		}

		menuName, _ := cmd.Flags().GetString("menu-name")
		if menuName == "" {
			menuName = menuNameFromPath(args[0])
		}

		pipeline := ingestion.NewPipeline(storeInstance, embeddingService, instanceProfile.ChunkSize, instanceProfile.ChunkOverlap)
		result, err := pipeline.IngestFile(ctx, args[0], menuName)
		if err != nil {
			return err
		}

		fmt.Printf("Ingested %q (id %s): %d chunks, %d duplicates skipped\n",
			result.MenuName, result.MenuID, result.TotalChunks, result.SkippedDuplicates)
		return nil
	},
}

func loadProfile() (*profile.Profile, error) {
	instanceProfile := &profile.Profile{
		Mode:    viper.GetString("mode"),
		Addr:    viper.GetString("addr"),
		Port:    viper.GetInt("port"),
		Data:    viper.GetString("data"),
		Driver:  viper.GetString("driver"),
		DSN:     viper.GetString("dsn"),
		Version: version.GetCurrentVersion(viper.GetString("mode")),
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return instanceProfile, nil
}

func openStore(ctx context.Context, instanceProfile *profile.Profile) (*store.Store, error) {
	dbDriver, err := db.NewDBDriver(instanceProfile)
	if err != nil {
		return nil, fmt.Errorf("create db driver: %w", err)
	}
	storeInstance := store.New(dbDriver, instanceProfile)
	if err := storeInstance.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return storeInstance, nil
}

func newAIServices(instanceProfile *profile.Profile) (llm.Service, embedding.Service, error) {
	llmService, err := llm.NewService(&llm.Config{
		Provider:          instanceProfile.LLMProvider,
		Model:             instanceProfile.LLMModel,
		APIKey:            instanceProfile.LLMAPIKey,
		BaseURL:           instanceProfile.LLMBaseURL,
		Timeout:           instanceProfile.LLMTimeout,
		RequestsPerMinute: instanceProfile.LLMRequestsPerMinute,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create llm service: %w", err)
	}

	embeddingService, err := embedding.NewService(&embedding.Config{
		Model:      instanceProfile.EmbeddingModel,
		APIKey:     instanceProfile.EmbeddingAPIKey,
		BaseURL:    instanceProfile.EmbeddingBaseURL,
		Dimensions: instanceProfile.EmbeddingDimensions,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create embedding service: %w", err)
	}

	return llmService, embeddingService, nil
}

func menuNameFromPath(path string) string {
	base := path
	if idx := strings.LastIndexAny(base, "/\\"); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base
}

func printGreetings(p *profile.Profile) {
	fmt.Printf("SaborAI %s started\n", p.Version)
	fmt.Printf("  mode:    %s\n", p.Mode)
	fmt.Printf("  driver:  %s\n", p.Driver)
	fmt.Printf("  listen:  %s:%d\n", p.Addr, p.Port)
	fmt.Printf("  llm:     %s (%s)\n", p.LLMProvider, p.LLMModel)
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8000)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8000, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")

	for _, key := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}

	ingestCmd.Flags().String("menu-name", "", "menu name (defaults to the file name)")
	rootCmd.AddCommand(ingestCmd)

	viper.SetEnvPrefix("saborai")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("saborai: exited with error", "error", err)
		os.Exit(1)
	}
}
