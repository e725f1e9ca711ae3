package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/tanpawarit/Chative-Order-Intake/agent/agents/orchestrator"
	logx "github.com/tanpawarit/Chative-Order-Intake/pkg/logger"
)

type Config struct {
	URL              string        `envconfig:"URL" default:"nats://127.0.0.1:4222"`
	Subject          string        `split_words:"true" default:"orders.turn"`
	FinalizedSubject string        `split_words:"true" default:"orders.finalized"`
	Timeout          time.Duration `split_words:"true" default:"30s"`
	Name             string        `split_words:"true" default:"order-intake"`
}

// Connect dials NATS and keeps reconnecting for the life of the process.
func Connect(cfg Config) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.Timeout(5*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", cfg.URL, err)
	}
	return conn, nil
}

// TurnHandler is satisfied by *orchestrator.Orchestrator.
type TurnHandler interface {
	HandleMessage(ctx context.Context, customerID string, text string) (string, error)
}

type TurnRequest struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type TurnResponse struct {
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

// Server answers turn requests on a request/reply subject.
type Server struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
	turns   TurnHandler
	log     zerolog.Logger
}

func NewServer(conn *nats.Conn, cfg Config, turns TurnHandler) (*Server, error) {
	if turns == nil {
		return nil, errors.New("turn handler is required")
	}
	subject := strings.TrimSpace(cfg.Subject)
	if subject == "" {
		subject = "orders.turn"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Server{
		conn:    conn,
		subject: subject,
		timeout: timeout,
		turns:   turns,
		log:     logx.Component("natsbus"),
	}, nil
}

// Run subscribes and blocks until ctx is cancelled, then drains the subscription.
func (s *Server) Run(ctx context.Context) error {
	if s.conn == nil {
		return errors.New("nats connection is nil")
	}

	sub, err := s.conn.Subscribe(s.subject, s.handleRequest)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.subject, err)
	}
	s.log.Info().Str("subject", s.subject).Msg("subscribed")

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("drain %s: %w", s.subject, err)
	}
	return nil
}

func (s *Server) handleRequest(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	data := s.process(ctx, msg.Data)
	if err := msg.Respond(data); err != nil {
		s.log.Error().Err(err).Str("subject", msg.Subject).Msg("respond failed")
	}
}

func (s *Server) process(ctx context.Context, data []byte) []byte {
	var req TurnRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.log.Warn().Err(err).Msg("invalid turn request")
		return encode(TurnResponse{Error: "invalid request format"})
	}

	reply, err := s.turns.HandleMessage(ctx, req.Sender, req.Text)
	switch {
	case errors.Is(err, orchestrator.ErrInvalidCustomer):
		return encode(TurnResponse{Error: "sender is required"})
	case err != nil:
		s.log.Error().Err(err).Str("customer_id", req.Sender).Msg("turn failed")
		return encode(TurnResponse{Error: "internal error"})
	}
	return encode(TurnResponse{Reply: reply})
}

func encode(resp TurnResponse) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		return []byte(`{"error":"internal error"}`)
	}
	return data
}
