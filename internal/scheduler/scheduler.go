package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"DealSentinel/internal/notifier"
	"DealSentinel/internal/service"
)

const (
	digestWindow  = 24 * time.Hour
	defaultRecent = 5
	maxRecent     = 20
)

// Scheduler manages all cron tasks and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Service   *service.Service
	Notifier  notifier.Notifier
	Retention time.Duration
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, svc *service.Service, n notifier.Notifier, retention time.Duration) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Service:   svc,
		Notifier:  n,
		Retention: retention,
		Ctx:       ctx,
	}
}

// RegisterAll registers the digest and retention tasks.
func (s *Scheduler) RegisterAll(digestCron, pruneCron string) error {
	if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	if _, err := s.Cron.AddFunc(pruneCron, s.pruneTask); err != nil {
		return fmt.Errorf("register prune task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) digestTask() {
	log.Println("[INFO] running digest task")
	text, err := s.digest()
	if err != nil {
		log.Printf("[ERROR] digest summary: %v", err)
		s.trySend(fmt.Sprintf("❌ Digest failed: %v", err))
		return
	}
	s.trySend(text)
}

func (s *Scheduler) pruneTask() {
	log.Println("[INFO] running retention prune")
	n, err := s.Service.Prune(s.Ctx, s.Retention)
	if err != nil {
		log.Printf("[ERROR] prune evaluations: %v", err)
		return
	}
	log.Printf("[INFO] pruned %d evaluations older than %v", n, s.Retention)
}

func (s *Scheduler) digest() (string, error) {
	sum, err := s.Service.Summary(s.Ctx, time.Now().Add(-digestWindow))
	if err != nil {
		return "", err
	}
	return notifier.FormatDigest(sum), nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	word, arg, _ := strings.Cut(command, " ")
	switch word {
	case "/summary":
		text, err := s.digest()
		if err != nil {
			log.Printf("[ERROR] summary command: %v", err)
			return "❌ Could not load the summary."
		}
		return text
	case "/recent":
		limit := defaultRecent
		if n, err := strconv.Atoi(strings.TrimSpace(arg)); err == nil && n > 0 {
			limit = min(n, maxRecent)
		}
		recs, err := s.Service.Recent(s.Ctx, limit)
		if err != nil {
			log.Printf("[ERROR] recent command: %v", err)
			return "❌ Could not load recent evaluations."
		}
		return notifier.FormatRecent(recs)
	default:
		return "Available commands:\n• /summary - evaluations in the last 24h\n• /recent [n] - latest evaluations"
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
