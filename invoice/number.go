package invoice

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/clinic-api/databases"
	"github.com/linesmerrill/clinic-api/models"
)

// InvoicePrefix starts every generated invoice number
const InvoicePrefix = "ADC"

const defaultNumberAttempts = 8

// ErrNumbersExhausted is returned when every attempt produced a number already in use
var ErrNumbersExhausted = errors.New("no free invoice number")

// NumberGenerator hands out invoice numbers of the form ADC + YYYYMMDD + six random
// digits, checking each candidate against the numbers already stored on payments.
type NumberGenerator struct {
	Patients databases.PatientDatabase
	Location *time.Location
	Now      func() time.Time
	Attempts int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewNumberGenerator creates a generator dating numbers in loc
func NewNumberGenerator(p databases.PatientDatabase, loc *time.Location) *NumberGenerator {
	if loc == nil {
		loc = time.Local
	}
	return &NumberGenerator{
		Patients: p,
		Location: loc,
		Now:      time.Now,
		Attempts: defaultNumberAttempts,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *NumberGenerator) suffix() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return 100000 + g.rng.Intn(900000)
}

// Candidate returns a number without checking it is free
func (g *NumberGenerator) Candidate() string {
	now := time.Now()
	if g.Now != nil {
		now = g.Now()
	}
	return fmt.Sprintf("%s%s%06d", InvoicePrefix, now.In(g.Location).Format("20060102"), g.suffix())
}

// Next returns a number no stored payment carries yet
func (g *NumberGenerator) Next(ctx context.Context) (string, error) {
	attempts := g.Attempts
	if attempts <= 0 {
		attempts = defaultNumberAttempts
	}
	for i := 0; i < attempts; i++ {
		candidate := g.Candidate()
		n, err := g.Patients.CountDocuments(ctx, bson.M{"payments.invoiceNo": candidate})
		if err != nil {
			return "", models.NewStoreError("check invoice number", err)
		}
		if n == 0 {
			return candidate, nil
		}
	}
	return "", models.NewStoreError("allocate invoice number", ErrNumbersExhausted)
}
