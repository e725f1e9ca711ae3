package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
	llmx "github.com/tanpawarit/Chative-Order-Intake/agent/llm"
	promptx "github.com/tanpawarit/Chative-Order-Intake/agent/prompt"
	logx "github.com/tanpawarit/Chative-Order-Intake/pkg/logger"
)

type RetryPolicy struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	Backoff        time.Duration
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Backoff < 0 {
		p.Backoff = 0
	}
	return p
}

// Extractor asks the chat model for form updates. Malformed output becomes
// the fallback result; transport failures are retried and then reported as
// contract.ErrExtractorUnavailable.
type Extractor struct {
	runner compose.Runnable[contractx.ExtractionRequest, string]
	retry  RetryPolicy
	log    zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

var _ contractx.Extractor = (*Extractor)(nil)

func New(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string, retry RetryPolicy) (*Extractor, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: extractor", contractx.ErrPromptMissing)
	}

	runner, err := compileExtractionGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	return &Extractor{
		runner: runner,
		retry:  retry.normalized(),
		log:    logx.Component("extractor"),
		sleep:  sleepContext,
	}, nil
}

// NewFromConfig builds the chat model and prompt from cfg.
func NewFromConfig(ctx context.Context, cfg llmx.Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()
	if err := prompts.Validate(); err != nil {
		return nil, err
	}

	modelCfg := cfg.ChatModel()
	chatModel, err := modelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create extractor model: %v", contractx.ErrModelInvoke, err)
	}

	return New(ctx, chatModel, prompts.Extractor, RetryPolicy{
		MaxAttempts:    cfg.MaxAttempts,
		AttemptTimeout: cfg.Timeout,
		Backoff:        cfg.RetryBackoff,
	})
}

type formView struct {
	QuantityKg    *float64 `json:"quantity_kg"`
	DeliveryDay   *string  `json:"delivery_day"`
	Address       *string  `json:"address"`
	District      *string  `json:"district"`
	PaymentMethod *string  `json:"payment_method"`
	Confirmed     bool     `json:"confirmed"`
}

type requestView struct {
	CustomerID  string   `json:"customer_id"`
	CurrentForm formView `json:"current_form"`
	NewMessage  string   `json:"new_message"`
}

// compileExtractionGraph wires encode_request -> prompt -> model -> content.
// The request JSON is the single user message; the reply is the raw content.
func compileExtractionGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (compose.Runnable[contractx.ExtractionRequest, string], error) {
	graph := compose.NewGraph[contractx.ExtractionRequest, string]()

	encode := compose.InvokableLambda(func(ctx context.Context, req contractx.ExtractionRequest) (map[string]any, error) {
		f := req.CurrentForm
		raw, err := json.Marshal(requestView{
			CustomerID: req.CustomerID,
			CurrentForm: formView{
				QuantityKg:    f.QuantityKg,
				DeliveryDay:   f.DeliveryDay,
				Address:       f.Address,
				District:      f.District,
				PaymentMethod: f.PaymentMethod,
				Confirmed:     f.Confirmed,
			},
			NewMessage: req.NewMessage,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal extraction request: %w", err)
		}
		return map[string]any{"input": string(raw)}, nil
	})
	content := compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (string, error) {
		if msg == nil {
			return "", nil
		}
		return msg.Content, nil
	})
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	steps := []struct {
		name string
		add  func() error
	}{
		{"encode_request", func() error { return graph.AddLambdaNode("encode_request", encode) }},
		{"prompt", func() error { return graph.AddChatTemplateNode("prompt", template) }},
		{"model", func() error { return graph.AddChatModelNode("model", chatModel) }},
		{"content", func() error { return graph.AddLambdaNode("content", content) }},
	}
	prev := compose.START
	for _, step := range steps {
		if err := step.add(); err != nil {
			return nil, fmt.Errorf("add extraction node %s: %w", step.name, err)
		}
		if err := graph.AddEdge(prev, step.name); err != nil {
			return nil, fmt.Errorf("add extraction edge %s->%s: %w", prev, step.name, err)
		}
		prev = step.name
	}
	if err := graph.AddEdge(prev, compose.END); err != nil {
		return nil, fmt.Errorf("add extraction edge %s->end: %w", prev, err)
	}

	return graph.Compile(ctx, compose.WithGraphName("extractor.turn_graph"))
}

func (e *Extractor) Extract(ctx context.Context, req contractx.ExtractionRequest) (contractx.ExtractionResult, error) {
	var lastErr error
	for attempt := 1; attempt <= e.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := e.sleep(ctx, e.retry.Backoff*time.Duration(attempt-1)); err != nil {
				lastErr = err
				break
			}
		}

		content, err := e.invokeOnce(ctx, req)
		if err == nil {
			return e.decode(content, req), nil
		}

		lastErr = err
		e.log.Warn().
			Err(err).
			Str("customer_id", req.CustomerID).
			Int("attempt", attempt).
			Int("max_attempts", e.retry.MaxAttempts).
			Msg("extraction attempt failed")

		if ctx.Err() != nil {
			break
		}
	}

	return contractx.ExtractionResult{}, fmt.Errorf("%w: %v", contractx.ErrExtractorUnavailable, lastErr)
}

func (e *Extractor) invokeOnce(ctx context.Context, req contractx.ExtractionRequest) (string, error) {
	if e.retry.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.retry.AttemptTimeout)
		defer cancel()
	}

	content, err := e.runner.Invoke(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: extraction invoke: %v", contractx.ErrModelInvoke, err)
	}
	return content, nil
}

func (e *Extractor) decode(content string, req contractx.ExtractionRequest) contractx.ExtractionResult {
	res, err := ParseResult(content)
	if err == nil {
		return res
	}

	e.log.Warn().
		Err(err).
		Str("customer_id", req.CustomerID).
		Bool("fallback", true).
		Msg("extraction output rejected")
	return contractx.FallbackResult(req.CurrentForm)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
