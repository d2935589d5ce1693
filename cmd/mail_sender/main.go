package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"rentcard_service/internal/config"
	"rentcard_service/internal/lib/logger/sl"
	mailer "rentcard_service/internal/mail-sender"
	"rentcard_service/internal/rabbitmq"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const (
	providerSMTP = "smtp"
	providerSES  = "ses"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoadMailSender(config.Path("./config/mail_sender.yaml"))
	log := setupLogger(cfg.Env)

	log.Info("Starting mail_sender", slog.String("env", cfg.Env), slog.String("provider", cfg.Email.Provider))

	if err := run(ctx, cfg, log); err != nil {
		log.Error("mail_sender stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("service gracefully stopped")
}

func run(ctx context.Context, cfg *config.MailSenderConfig, log *slog.Logger) error {
	r, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		return err
	}
	defer r.Close()

	dispatcher, err := newDispatcher(ctx, cfg, log)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("consumer successfully started", slog.String("queue", cfg.RabbitMQ.QueueName))
		return r.StartReading(gctx, dispatcher.Handle)
	})

	return g.Wait()
}

func newDispatcher(ctx context.Context, cfg *config.MailSenderConfig, log *slog.Logger) (*mailer.Dispatcher, error) {
	needAWS := cfg.Email.Provider == providerSES || cfg.SMS.Enabled

	var (
		sesClient *ses.Client
		snsClient *sns.Client
	)

	if needAWS {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return nil, err
		}

		sesClient = ses.NewFromConfig(awsCfg)
		snsClient = sns.NewFromConfig(awsCfg)
	}

	var emailSender mailer.EmailSender

	switch cfg.Email.Provider {
	case providerSES:
		emailSender = mailer.NewSESMailer(sesClient, cfg.Email.From)
	default:
		emailSender = &mailer.Mailer{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		}
	}

	if !cfg.SMS.Enabled {
		return mailer.NewDispatcher(log, emailSender, nil), nil
	}

	return mailer.NewDispatcher(log, emailSender, mailer.NewSNSTexter(snsClient)), nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
		log.Warn("unknown env, using prod logger", slog.String("env", env))
	}

	return log
}
