package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-api/finance"
	"github.com/linesmerrill/clinic-api/models"
	templates "github.com/linesmerrill/clinic-api/templates/html"
)

// digestTimeout bounds one digest run, queries and delivery included
const digestTimeout = 2 * time.Minute

// Mailer delivers a single email
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlContent, plainText string) error
}

// SendgridMailer sends mail through the SendGrid v3 API
type SendgridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendgridMailer creates a mailer for apiKey sending as fromAddress
func NewSendgridMailer(apiKey, fromAddress string) *SendgridMailer {
	return &SendgridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("Clinic Reports", fromAddress),
	}
}

// Send implements Mailer
func (m *SendgridMailer) Send(ctx context.Context, to, subject, htmlContent, plainText string) error {
	message := mail.NewSingleEmail(m.from, subject, mail.NewEmail("", to), plainText, htmlContent)
	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

// Scheduler runs the daily financial digest
type Scheduler struct {
	cron       *cron.Cron
	Aggregator *finance.Aggregator
	Resolver   finance.Resolver
	Mailer     Mailer
	Recipients []string
	Spec       string
}

// NewScheduler creates a scheduler firing on the cron expression spec in the resolver's time zone. recipients
// is a comma separated list of addresses.
func NewScheduler(agg *finance.Aggregator, resolver finance.Resolver, mailer Mailer, spec, recipients string) *Scheduler {
	loc := resolver.Location
	if loc == nil {
		loc = time.Local
	}
	var to []string
	for _, addr := range strings.Split(recipients, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		Aggregator: agg,
		Resolver:   resolver,
		Mailer:     mailer,
		Recipients: to,
		Spec:       spec,
	}
}

// Start registers the digest job and starts the cron loop
func (s *Scheduler) Start() error {
	if len(s.Recipients) == 0 {
		return errors.New("no digest recipients configured")
	}
	_, err := s.cron.AddFunc(s.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
		defer cancel()
		if err := s.SendDailyDigest(ctx); err != nil {
			zap.S().Errorw("daily digest failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("register digest job %q: %w", s.Spec, err)
	}

	s.cron.Start()
	zap.S().Infow("digest scheduler started",
		"spec", s.Spec,
		"recipients", len(s.Recipients))
	return nil
}

// Stop waits for a running job to finish and stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("digest scheduler stopped")
}

// SendDailyDigest summarizes today across every branch and mails it to each recipient.
// Delivery continues past a failing recipient; the failures are returned together.
func (s *Scheduler) SendDailyDigest(ctx context.Context) error {
	today := s.Resolver.Today()
	branch := models.AllBranches

	summary, err := s.Aggregator.DashboardSummary(ctx, today, branch)
	if err != nil {
		return fmt.Errorf("dashboard summary: %w", err)
	}
	revenue, err := s.Aggregator.RevenueVsExpense(ctx, &today, branch)
	if err != nil {
		return fmt.Errorf("revenue vs expense: %w", err)
	}
	expenses, err := s.Aggregator.ExpenseByCategory(ctx, &today, branch)
	if err != nil {
		return fmt.Errorf("expense by category: %w", err)
	}

	subject, htmlBody, plain := templates.RenderDailyDigest(templates.Digest{
		Date:     today.Start.Format("02 Jan 2006"),
		Branch:   branch,
		Summary:  summary,
		Revenue:  revenue,
		Expenses: expenses,
	})

	var failed []error
	for _, to := range s.Recipients {
		if err := s.Mailer.Send(ctx, to, subject, htmlBody, plain); err != nil {
			zap.S().Errorw("failed to send digest", "to", to, "error", err)
			failed = append(failed, fmt.Errorf("%s: %w", to, err))
		}
	}
	if len(failed) > 0 {
		return errors.Join(failed...)
	}
	zap.S().Infow("daily digest sent",
		"registrations", summary.Registrations,
		"recipients", len(s.Recipients))
	return nil
}
