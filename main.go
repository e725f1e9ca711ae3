package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	extractorx "github.com/tanpawarit/Chative-Order-Intake/agent/agents/extractor"
	"github.com/tanpawarit/Chative-Order-Intake/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
	ledgerx "github.com/tanpawarit/Chative-Order-Intake/agent/ledger"
	llmx "github.com/tanpawarit/Chative-Order-Intake/agent/llm"
	statex "github.com/tanpawarit/Chative-Order-Intake/agent/state"
	"github.com/tanpawarit/Chative-Order-Intake/channel/httpserver"
	"github.com/tanpawarit/Chative-Order-Intake/channel/natsbus"
	chatmodelx "github.com/tanpawarit/Chative-Order-Intake/pkg/chatmodel"
	configx "github.com/tanpawarit/Chative-Order-Intake/pkg/config"
	_ "github.com/tanpawarit/Chative-Order-Intake/pkg/logger/autoload"
	whatsappx "github.com/tanpawarit/Chative-Order-Intake/pkg/whatsapp"
)

type AppConfig struct {
	HTTPAddr          string `envconfig:"HTTP_ADDR" default:":8000"`
	SessionBackend    string `envconfig:"SESSION_BACKEND" default:"memory"`
	LedgerBackend     string `envconfig:"LEDGER_BACKEND" default:"csv"`
	LedgerCSVPath     string `envconfig:"LEDGER_CSV_PATH" default:"pedidos.csv"`
	PostConfirmPolicy string `envconfig:"POST_CONFIRM_POLICY" default:"keep"`
	NATSEnabled       bool   `envconfig:"NATS_ENABLED" default:"false"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Error().Err(err).Msg("order intake stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	appCfg := configx.MustNew[AppConfig]("")
	llmCfg := configx.MustNew[llmx.Config]("LLM")
	waCfg := configx.MustNew[whatsappx.Config]("WHATSAPP")

	store, closeStore, err := newStore(ctx, appCfg.SessionBackend)
	if err != nil {
		return err
	}
	defer closeStore()

	var natsConn *nats.Conn
	var natsCfg *natsbus.Config
	if appCfg.NATSEnabled {
		natsCfg = configx.MustNew[natsbus.Config]("NATS")
		natsConn, err = natsbus.Connect(*natsCfg)
		if err != nil {
			return err
		}
		defer natsConn.Close()
		log.Info().Str("url", natsCfg.URL).Msg("connected to nats")
	}

	ledger, closeLedger, err := newLedger(ctx, *appCfg, natsConn, natsCfg)
	if err != nil {
		return err
	}
	defer closeLedger()

	if llmCfg.ProbeOnStart {
		probeModel(ctx, *llmCfg)
	}

	extractor, err := extractorx.NewFromConfig(ctx, *llmCfg)
	if err != nil {
		return err
	}

	orch, err := orchestrator.New(store, extractor, ledger, orchestrator.Config{
		PostConfirmPolicy: orchestrator.PostConfirmPolicy(appCfg.PostConfirmPolicy),
	})
	if err != nil {
		return err
	}

	waClient := whatsappx.MustNew(*waCfg)
	if !waClient.Configured() {
		log.Warn().Msg("whatsapp outbound not configured, replies will not be sent")
	}

	handler, err := httpserver.NewHandler(orch, waClient, waClient.VerifyToken())
	if err != nil {
		return err
	}
	engine := httpserver.NewEngine()
	httpserver.RegisterRoutes(engine, handler)

	log.Info().
		Str("session_backend", appCfg.SessionBackend).
		Str("ledger_backend", appCfg.LedgerBackend).
		Str("policy", string(orch.Policy())).
		Str("model", llmCfg.Model).
		Msg("order intake ready")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.NewServer(appCfg.HTTPAddr, engine).Run(gctx)
	})
	if natsConn != nil {
		bus, err := natsbus.NewServer(natsConn, *natsCfg, orch)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return bus.Run(gctx)
		})
	}
	return g.Wait()
}

func newStore(ctx context.Context, backend string) (statex.Store, func(), error) {
	noop := func() {}

	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "memory":
		return statex.NewMemoryStore(), noop, nil
	case "redis":
		cfg := configx.MustNew[statex.RedisConfig]("REDIS")
		store, err := statex.NewRedisStore(ctx, *cfg)
		if err != nil {
			return nil, noop, err
		}
		return store, func() { _ = store.Close() }, nil
	case "upstash":
		cfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		store, err := statex.NewUpstashRedisStore(*cfg)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	default:
		return nil, noop, fmt.Errorf("%w: unknown session backend %q", contractx.ErrValidation, backend)
	}
}

func newLedger(
	ctx context.Context,
	appCfg AppConfig,
	natsConn *nats.Conn,
	natsCfg *natsbus.Config,
) (contractx.Ledger, func(), error) {
	noop := func() {}

	var (
		primary contractx.Ledger
		closeFn = noop
	)
	switch strings.ToLower(strings.TrimSpace(appCfg.LedgerBackend)) {
	case "", "csv":
		csvLedger, err := ledgerx.NewCSVLedger(appCfg.LedgerCSVPath)
		if err != nil {
			return nil, noop, err
		}
		primary = csvLedger
		log.Info().Str("path", csvLedger.Path()).Msg("csv ledger ready")
	case "postgres":
		cfg := configx.MustNew[ledgerx.PostgresConfig]("POSTGRES")
		pg, err := ledgerx.NewPostgresLedger(ctx, *cfg)
		if err != nil {
			return nil, noop, err
		}
		primary = pg
		closeFn = func() { _ = pg.Close() }
	default:
		return nil, noop, fmt.Errorf("%w: unknown ledger backend %q", contractx.ErrValidation, appCfg.LedgerBackend)
	}

	if natsConn == nil {
		return primary, closeFn, nil
	}

	events, err := ledgerx.NewEventLedger(natsConn, natsCfg.FinalizedSubject)
	if err != nil {
		closeFn()
		return nil, noop, err
	}
	fanout, err := ledgerx.NewFanout(primary, events)
	if err != nil {
		closeFn()
		return nil, noop, err
	}
	return fanout, closeFn, nil
}

// probeModel only warns; the extractor's fallback path covers a bad endpoint.
func probeModel(ctx context.Context, cfg llmx.Config) {
	client := chatmodelx.NewClient(cfg.ChatModel())

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := chatmodelx.Probe(probeCtx, client, cfg.Model); err != nil {
		log.Warn().Err(err).Str("model", cfg.Model).Msg("llm endpoint probe failed")
		return
	}
	log.Info().Str("model", cfg.Model).Msg("llm endpoint reachable")
}
