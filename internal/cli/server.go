package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assessment-engine/internal/config"
	"assessment-engine/internal/domain"
	"assessment-engine/internal/engine"
	"assessment-engine/internal/infra/memory"
	pgloader "assessment-engine/internal/infra/postgres"
	redisinfra "assessment-engine/internal/infra/redis"
	transport "assessment-engine/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the assessment server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	snapshotTTL := config.TTLDuration(cfg.Redis.SnapshotTTL, 24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.AssessmentLoader = memory.NewStaticAssessmentLoader(sampleAssessments())
	if pool != nil {
		loader = pgloader.NewAssessmentLoader(pool)
	}

	assessmentTTL := config.TTLDuration(cfg.Engine.AssessmentTTL, 10*time.Minute)
	var assessments transport.AssessmentRepository
	if redisClient != nil {
		assessments = redisinfra.NewAssessmentRepository(redisClient, loader, assessmentTTL)
	} else {
		assessments = memory.NewAssessmentRepository(loader, assessmentTTL)
	}

	var store engine.SnapshotStore
	if redisClient != nil {
		store = redisinfra.NewSnapshotStore(redisClient, snapshotTTL)
	} else {
		store = memory.NewSnapshotStore()
	}
	wsHandler := transport.NewWSHandler(assessments, store)
	wsHandler.AutosaveInterval = config.TTLDuration(cfg.Engine.AutosaveInterval, 30*time.Second)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting assessment engine on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleAssessments provides a minimal bank; swap the loader with a
// Postgres-backed one in production.
func sampleAssessments() map[string]domain.Assessment {
	return map[string]domain.Assessment{
		"physics-101": {
			ID:               "physics-101",
			Title:            "Physics warm-up",
			TimeLimitSeconds: 300,
			AutoSubmit:       true,
			Questions: []domain.Question{
				{
					ID:      "q1",
					Type:    domain.TypeSingleChoice,
					Prompt:  "What is the SI unit of force?",
					Options: []string{"Joule", "Newton", "Watt"},
					Correct: domain.TextValue("Newton"),
					Points:  10,
					Hints:   []string{"Named after an English physicist."},
				},
				{
					ID:      "q2",
					Type:    domain.TypeNumeric,
					Prompt:  "g at sea level, in m/s^2 (two decimals)?",
					Correct: domain.TextValue("9.81"),
					Points:  10,
				},
				{
					ID:      "q3",
					Type:    domain.TypeMultiSelect,
					Prompt:  "Which of these are vector quantities?",
					Options: []string{"velocity", "mass", "acceleration", "temperature"},
					Correct: domain.ListValue("velocity", "acceleration"),
					Points:  10,
				},
			},
		},
	}
}
