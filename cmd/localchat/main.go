package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog/log"
	configx "github.com/tanpawarit/Chative-Order-Intake/pkg/config"
	logx "github.com/tanpawarit/Chative-Order-Intake/pkg/logger"
)

type Config struct {
	URL     string        `envconfig:"URL" default:"http://127.0.0.1:8000/docs"`
	Sender  string        `envconfig:"SENDER" default:"+51999999999"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

func main() {
	logx.Init(logx.Config{PrettyFormat: true, Service: "localchat"})
	cfg := configx.MustNew[Config]("LOCALCHAT")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	session := &Session{
		URL:    cfg.URL,
		Sender: cfg.Sender,
		Client: &http.Client{Timeout: cfg.Timeout},
	}
	if err := session.Run(ctx, os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Str("url", cfg.URL).Msg("error calling the backend")
		os.Exit(1)
	}
}
