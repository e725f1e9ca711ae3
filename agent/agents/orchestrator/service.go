package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
	nodex "github.com/tanpawarit/Chative-Order-Intake/agent/nodes"
	statex "github.com/tanpawarit/Chative-Order-Intake/agent/state"
	logx "github.com/tanpawarit/Chative-Order-Intake/pkg/logger"
)

var ErrInvalidCustomer = nodex.ErrInvalidCustomer

type PostConfirmPolicy = nodex.PostConfirmPolicy

const (
	PolicyKeep  = nodex.PolicyKeep
	PolicyReset = nodex.PolicyReset
)

type Config struct {
	PostConfirmPolicy PostConfirmPolicy
}

// Orchestrator runs one conversation turn per message. Turns for the same
// customer are serialized; different customers proceed in parallel.
type Orchestrator struct {
	store     statex.Store
	extractor contractx.Extractor
	ledger    contractx.Ledger
	policy    PostConfirmPolicy
	locks     *statex.KeyedMutex

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now   func() time.Time
	newID func() string
	log   zerolog.Logger
}

func New(
	store statex.Store,
	extractor contractx.Extractor,
	ledger contractx.Ledger,
	cfg Config,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("form store is required")
	}
	if extractor == nil {
		return nil, errors.New("extractor is required")
	}
	if ledger == nil {
		return nil, errors.New("order ledger is required")
	}

	policy, err := nodex.ParsePostConfirmPolicy(string(cfg.PostConfirmPolicy))
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		store:     store,
		extractor: extractor,
		ledger:    ledger,
		policy:    policy,
		locks:     statex.NewKeyedMutex(),
		now:       time.Now,
		newID:     uuid.NewString,
		log:       logx.Component("orchestrator"),
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage processes one customer message and returns the reply text.
// Malformed model output never produces an error; store and ledger failures do.
func (o *Orchestrator) HandleMessage(ctx context.Context, customerID string, text string) (string, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return "", ErrInvalidCustomer
	}

	unlock := o.locks.Lock(customerID)
	defer unlock()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		CustomerID: customerID,
		Text:       text,
	})
	if err != nil {
		o.log.Error().Err(err).Str("customer_id", customerID).Msg("turn failed")
		return "", err
	}

	if out.Unavailable {
		o.log.Warn().
			Str("customer_id", customerID).
			Bool("new_form", out.NewForm).
			Msg("extractor unavailable, form left unchanged")
		return out.Reply, nil
	}

	evt := o.log.Info().
		Str("customer_id", customerID).
		Bool("fallback", out.Fallback).
		Bool("finalized", out.Finalized).
		Bool("new_form", out.NewForm).
		Strs("changed", fieldNames(out.Changed))
	if out.OrderID != "" {
		evt = evt.Str("order_id", out.OrderID)
	}
	evt.Msg("turn handled")

	return out.Reply, nil
}

func (o *Orchestrator) Policy() PostConfirmPolicy {
	return o.policy
}

func fieldNames(fields []statex.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}
