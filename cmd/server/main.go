package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	authhandler "safereturn/internal/auth/handler"
	authservice "safereturn/internal/auth/service"
	sessionstore "safereturn/internal/auth/store/session"
	followuphandler "safereturn/internal/followup/handler"
	"safereturn/internal/followup/policy"
	followupservice "safereturn/internal/followup/service"
	profilestore "safereturn/internal/followup/store/profile"
	reportstore "safereturn/internal/followup/store/report"
	"safereturn/internal/httpapi"
	jobhandler "safereturn/internal/job/handler"
	jobservice "safereturn/internal/job/service"
	jobstore "safereturn/internal/job/store"
	notifhandler "safereturn/internal/notification/handler"
	notifservice "safereturn/internal/notification/service"
	notifstore "safereturn/internal/notification/store"
	personhandler "safereturn/internal/person/handler"
	personservice "safereturn/internal/person/service"
	personstore "safereturn/internal/person/store"
	"safereturn/internal/platform/config"
	"safereturn/internal/platform/httpserver"
	"safereturn/internal/platform/logger"
	"safereturn/internal/platform/metrics"
	platformredis "safereturn/internal/platform/redis"
	tickethandler "safereturn/internal/ticket/handler"
	ticketservice "safereturn/internal/ticket/service"
	ticketstore "safereturn/internal/ticket/store"
	"safereturn/internal/token"
	"safereturn/pkg/platform/audit"
	"safereturn/pkg/platform/audit/publisher"
	"safereturn/pkg/platform/audit/relay"
	auditmem "safereturn/pkg/platform/audit/store/memory"
	auditpg "safereturn/pkg/platform/audit/store/postgres"
)

// Compound store interfaces: each backing store serves more than one service,
// so main needs the union of the narrow slices the services declare.
type (
	personsStore interface {
		personservice.Store
	}
	casesStore interface {
		followupservice.CaseStore
		personservice.CaseStore
	}
	reportsStore interface {
		followupservice.ReportStore
		personservice.ReportStore
	}
	ticketsStore interface {
		ticketservice.Store
		personservice.TicketStore
		policy.TicketIssuer
	}
	notificationsStore interface {
		notifservice.Store
		personservice.NotificationStore
	}
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		persons       personsStore
		cases         casesStore
		reports       reportsStore
		tickets       ticketsStore
		notifications notificationsStore
		jobs          jobservice.Store
		auditStore    audit.Store
		outbox        *auditpg.Store
	)

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		persons = personstore.NewPostgres(db)
		cases = profilestore.NewPostgres(db)
		reports = reportstore.NewPostgres(db)
		tickets = ticketstore.NewPostgres(db)
		notifications = notifstore.NewPostgres(db)
		jobs = jobstore.NewPostgres(db)
		outbox = auditpg.New(db)
		auditStore = outbox
		log.Info("using postgres stores")
	} else {
		persons = personstore.NewInMemory()
		cases = profilestore.NewInMemory()
		reports = reportstore.NewInMemory()
		tickets = ticketstore.NewInMemory()
		notifications = notifstore.NewInMemory()
		jobs = jobstore.NewInMemory()
		auditStore = auditmem.NewInMemoryStore()
		log.Info("using in-memory stores")
	}

	var sessions authservice.SessionStore
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessions = sessionstore.NewRedis(redisClient.Client)
		log.Info("using redis session store")
	} else {
		sessions = sessionstore.NewInMemory()
		log.Info("using in-memory session store")
	}

	auditPub := publisher.NewPublisher(auditStore, publisher.WithAsyncBuffer(256))
	defer auditPub.Close()

	m := metrics.New()
	tokens := token.NewService(cfg.JWTSigningKey, "safereturn", "safereturn-api")

	auth := authservice.NewService(sessions, persons, tokens, cfg.SessionTTL,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(auditPub),
	)
	notifier := notifservice.NewService(notifications,
		notifservice.WithLogger(log),
		notifservice.WithAuditPublisher(auditPub),
		notifservice.WithMetrics(m),
	)
	ticketPolicy, err := policy.New(tickets)
	if err != nil {
		return err
	}
	followup := followupservice.NewService(cases, reports, persons, ticketPolicy, notifier,
		followupservice.WithLogger(log),
		followupservice.WithAuditPublisher(auditPub),
		followupservice.WithMetrics(m),
		followupservice.WithNotifyAllCategories(cfg.NotifyAllCategories),
	)
	ticketSvc := ticketservice.NewService(tickets, cases, notifier,
		ticketservice.WithLogger(log),
		ticketservice.WithAuditPublisher(auditPub),
	)
	personSvc := personservice.NewService(persons, cases, reports, tickets, notifications,
		personservice.WithLogger(log),
		personservice.WithAuditPublisher(auditPub),
	)
	jobSvc := jobservice.NewService(jobs,
		jobservice.WithLogger(log),
		jobservice.WithAuditPublisher(auditPub),
	)

	router := httpapi.New(httpapi.Handlers{
		Auth:          authhandler.New(auth, log),
		Person:        personhandler.New(personSvc, log),
		Followup:      followuphandler.New(followup, log),
		Ticket:        tickethandler.New(ticketSvc, log),
		Notification:  notifhandler.New(notifier, log),
		Job:           jobhandler.New(jobSvc, log),
		TokenVerifier: auth,
	}, log)

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting safereturn", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// The outbox relay only makes sense with both a database and brokers:
	// without Postgres there is no outbox, without Kafka nowhere to drain it.
	if outbox != nil && len(cfg.KafkaBrokers) > 0 {
		rel, err := relay.New(ctx, cfg.KafkaBrokers, cfg.AuditTopic, outbox, log)
		if err != nil {
			return fmt.Errorf("start audit relay: %w", err)
		}
		defer rel.Close()
		g.Go(func() error {
			log.Info("starting audit relay", "topic", cfg.AuditTopic)
			if err := rel.Run(ctx); err != nil && err != context.Canceled {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
