// Command server boots the doctalk API: configuration, the relational
// and vector stores, the process-scoped model registry, the concurrency
// arbiter and the gin HTTP surface.
package main

import (
	"crypto/rand"
	"net"
	"strconv"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Sourabsb/doctalk/internal/branch"
	"github.com/Sourabsb/doctalk/internal/concurrency"
	"github.com/Sourabsb/doctalk/internal/config"
	"github.com/Sourabsb/doctalk/internal/document"
	"github.com/Sourabsb/doctalk/internal/external"
	"github.com/Sourabsb/doctalk/internal/handler"
	"github.com/Sourabsb/doctalk/internal/orchestrator"
	"github.com/Sourabsb/doctalk/internal/registry"
	"github.com/Sourabsb/doctalk/internal/retrieval"
	"github.com/Sourabsb/doctalk/internal/session"
	"github.com/Sourabsb/doctalk/internal/types"
	"github.com/Sourabsb/doctalk/internal/vectorstore"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	if err := branch.AutoMigrate(db); err != nil {
		log.Fatalf("migrate schema: %v", err)
	}

	vsHost, vsPort, err := splitHostPort(cfg.VectorStore.Addr, 6334)
	if err != nil {
		log.Fatalf("parse vectorstore address: %v", err)
	}
	vectorStore, err := vectorstore.NewQdrantStore(vsHost, vsPort, cfg.VectorStore.APIKey, cfg.VectorStore.CollectionBaseName)
	if err != nil {
		log.Fatalf("connect vector store: %v", err)
	}

	docStore := document.New(db)
	branchStore := branch.New(db)
	reg := registry.New(cfg)

	var busyRecorder session.Recorder = session.NoopRecorder{}
	if cfg.Redis.Addr != "" {
		busyRecorder = session.NewRedisRecorder(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}
	arbiter := concurrency.New(cfg.Arbiter.ConversationTimeout, cfg.Arbiter.LocalModeTimeout, cfg.Arbiter.LocalModeMaxParallel, busyRecorder)

	retriever := retrieval.New(vectorStore, docStore, cfg.Retrieval)

	defaultMode := types.LLMMode(cfg.Providers.DefaultLLMMode)
	orch := orchestrator.New(
		branchStore, docStore, retriever, arbiter,
		reg.EmbedderFor, reg.ProviderFor,
		defaultMode, cfg.Conversation.MaxRounds,
	)

	jwtSecret := cfg.Auth.JWTSecret
	if jwtSecret == "" {
		log.Warn("DOCTALK_AUTH_JWTSECRET is unset; falling back to a random per-process secret, which invalidates tokens across restarts")
		jwtSecret = randomSecret()
	}

	router := handler.NewRouter(handler.Deps{
		Config:       cfg,
		Orchestrator: orch,
		DocStore:     docStore,
		BranchStore:  branchStore,
		VectorStore:  vectorStore,
		Registry:     reg,
		Decoder:      external.NewPlainTextDecoder(),
		Renderer:     external.NewPlainExportRenderer(),
		Auth:         external.NewJWTAuthenticator(jwtSecret),
	})

	log.Infof("doctalk listening on %s", cfg.Server.Addr)
	if err := router.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func splitHostPort(addr string, defaultPort int) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, defaultPort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "doctalk-dev-secret-do-not-use-in-production"
	}
	return string(b)
}
