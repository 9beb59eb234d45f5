package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-api/api"
	"github.com/linesmerrill/clinic-api/api/scheduler"
	"github.com/linesmerrill/clinic-api/config"
	"github.com/linesmerrill/clinic-api/databases"
	"github.com/linesmerrill/clinic-api/finance"
	"github.com/linesmerrill/clinic-api/invoice"
	"github.com/linesmerrill/clinic-api/models"
)

// RequestTimeout bounds every request except the PDF routes
const RequestTimeout = 30 * time.Second

const (
	printBurst    = 3
	archiveFolder = "invoices"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router  *mux.Router
	Config  config.Config
	Metrics *api.Metrics

	dbHelper  databases.DatabaseHelper
	client    databases.ClientHelper
	cache     finance.GrowthCache
	kv        *databases.RedisKVStore
	uploader  invoice.Uploader
	scheduler *scheduler.Scheduler
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.Metrics == nil {
		a.Metrics = api.NewMetrics()
	}
	loc := a.Config.Location
	resolver := finance.NewResolver(loc)

	patients := databases.NewPatientDatabase(a.dbHelper)
	users := databases.NewUserDatabase(a.dbHelper)

	m := &api.MiddlewareDB{DB: users, Secret: []byte(a.Config.JWTSecret)}
	m.SetupGoGuardian()

	renderer := invoice.NewRenderer(patients, loc, a.Config.InvoiceFontPath)

	agg := a.aggregator(resolver)
	f := Finance{Aggregator: agg, Resolver: resolver}
	b := Bill{Renderer: renderer, Archiver: invoice.NewArchiver(renderer, a.uploader), Metrics: a.Metrics}
	p := Patient{DB: patients, Numbers: invoice.NewNumberGenerator(patients, loc), Resolver: resolver, Growth: agg}
	e := Expense{DB: databases.NewExpenseDatabase(a.dbHelper), Resolver: resolver, Growth: agg}
	appt := Appointment{DB: databases.NewAppointmentDatabase(a.dbHelper)}
	lw := Warranty{DB: databases.NewWarrantyDatabase(a.dbHelper), PDB: patients}
	med := Medication{DB: databases.NewMedicationDatabase(a.dbHelper), PDB: patients, Resolver: resolver}
	u := User{DB: users, Tokens: m}
	t := Treatment{DB: databases.NewTreatmentDatabase(a.dbHelper)}

	r := api.New()
	r.Use(a.Metrics.Middleware)
	r.Handle("/metrics", a.Metrics.Handler()).Methods("GET")

	r.HandleFunc("/login", u.LoginHandler).Methods("POST")
	r.HandleFunc("/register", u.RegisterHandler).Methods("POST")

	// PDF routes stream their body, so they are rate limited instead of timed out
	printing := r.PathPrefix("/bill").Subrouter()
	printing.Use(m.Middleware, api.RateLimit(a.Config.PrintRateLimit, printBurst))
	printing.HandleFunc("/print/{patientId}/txn/{transactionId}", b.PrintTransactionHandler).Methods("GET")
	printing.HandleFunc("/print/{patientId}/{invoiceNo}", b.PrintInvoiceHandler).Methods("GET")
	printing.HandleFunc("/archive/{patientId}/{invoiceNo}", b.ArchiveHandler).Methods("POST")

	authed := r.NewRoute().Subrouter()
	authed.Use(m.Middleware, api.TimeoutMiddleware(RequestTimeout))

	authed.HandleFunc("/dashboard-summary", f.DashboardSummaryHandler).Methods("GET")
	authed.HandleFunc("/expense-summary", f.ExpenseSummaryHandler).Methods("GET")
	authed.HandleFunc("/expense-summary/export", f.ExpenseSummaryExportHandler).Methods("GET")
	authed.HandleFunc("/revenue-expense-summary", f.RevenueExpenseSummaryHandler).Methods("GET")
	authed.HandleFunc("/profit-revenue-growth", f.ProfitRevenueGrowthHandler).Methods("GET")
	authed.HandleFunc("/profit-revenue-growth/export", f.ProfitRevenueGrowthExportHandler).Methods("GET")

	authed.HandleFunc("/patients", p.RegisterPatientHandler).Methods("POST")
	authed.HandleFunc("/patients", p.SearchPatientsHandler).Methods("GET")
	authed.HandleFunc("/patients/phone/{phone}", p.PatientsByPhoneHandler).Methods("GET")
	authed.HandleFunc("/patients/{id}", p.PatientByIDHandler).Methods("GET")
	authed.HandleFunc("/patients/{id}/treatments", p.ReplaceTreatmentsHandler).Methods("PUT")
	authed.HandleFunc("/patients/{id}/treatments", p.SetTreatmentsHandler).Methods("POST")
	authed.HandleFunc("/patients/{id}/add-treatment", p.AddTreatmentHandler).Methods("POST")
	authed.HandleFunc("/patients/{id}/treatments/{index}", p.UpdateTreatmentEstimateHandler).Methods("PUT")
	authed.HandleFunc("/patients/{id}/payments", p.AddPaymentHandler).Methods("POST")
	authed.HandleFunc("/patients/{id}/payments/{index}", p.UpdatePaymentHandler).Methods("PUT")
	authed.HandleFunc("/patients/{id}/treatment-types", p.TreatmentTypesHandler).Methods("GET")

	authed.HandleFunc("/expenses", e.CreateExpenseHandler).Methods("POST")
	authed.HandleFunc("/expenses", e.ExpensesHandler).Methods("GET")

	authed.HandleFunc("/appointments", appt.CreateAppointmentHandler).Methods("POST")
	authed.HandleFunc("/appointments", appt.AppointmentsHandler).Methods("GET")

	authed.HandleFunc("/lab-warranty", lw.CreateWarrantyHandler).Methods("POST")
	authed.HandleFunc("/lab-warranty/search", lw.SearchWarrantyHandler).Methods("GET")

	authed.HandleFunc("/medications/{patientId}", med.MedicationHistoryHandler).Methods("GET")
	authed.HandleFunc("/medications/{patientId}", med.AddMedicationHandler).Methods("POST")

	authed.HandleFunc("/treatments", t.TreatmentsHandler).Methods("GET")

	authed.HandleFunc("/users", u.UsersHandler).Methods("GET")
	authed.HandleFunc("/users", u.CreateUserHandler).Methods("POST")
	authed.HandleFunc("/users/{id}", u.UpdateUserHandler).Methods("PUT")
	authed.HandleFunc("/users/{id}", u.DeleteUserHandler).Methods("DELETE")

	return r
}

func (a *App) aggregator(resolver finance.Resolver) *finance.Aggregator {
	agg := finance.NewAggregator(
		databases.NewPatientDatabase(a.dbHelper),
		databases.NewExpenseDatabase(a.dbHelper),
		resolver,
	)
	if a.cache != nil {
		agg.Cache = meteredCache{GrowthCache: a.cache, metrics: a.Metrics}
		agg.CacheTTL = a.Config.GrowthCacheTTL
	}
	return agg
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize(ctx context.Context) error {
	if a.Config.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}
	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)

	if err := client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("clinic-api has connected to the database")

	if err := databases.EnsureIndexes(ctx, a.dbHelper); err != nil {
		zap.S().With(err).Error("failed to ensure indexes")
		return err
	}

	added, err := databases.NewTreatmentDatabase(a.dbHelper).Seed(ctx, models.DefaultTreatmentNames)
	if err != nil {
		zap.S().Warnw("failed to seed treatment catalogue", "error", err)
	} else if added > 0 {
		zap.S().Infow("seeded treatment catalogue", "added", added)
	}

	if a.Config.RedisURL != "" {
		kv, err := databases.NewRedisKVStore(a.Config.RedisURL)
		if err == nil {
			err = kv.Ping(ctx)
		}
		if err != nil {
			zap.S().Warnw("growth cache disabled", "error", err)
			if kv != nil {
				kv.Close()
			}
		} else {
			a.kv = kv
			a.cache = databases.NewGrowthCache(kv)
			zap.S().Infow("growth cache enabled", "ttl", a.Config.GrowthCacheTTL)
		}
	}

	if a.Config.CloudinaryURL != "" {
		up, err := invoice.NewCloudinaryUploader(a.Config.CloudinaryURL, archiveFolder)
		if err != nil {
			return fmt.Errorf("cloudinary: %w", err)
		}
		a.uploader = up
	}

	// initialize api router
	a.initializeRoutes()
	return nil
}

// StartScheduler starts the daily digest when mail delivery is configured
func (a *App) StartScheduler() {
	if a.Config.SendgridAPIKey == "" || a.Config.ReportEmailTo == "" {
		zap.S().Info("daily digest disabled")
		return
	}
	resolver := finance.NewResolver(a.Config.Location)
	mailer := scheduler.NewSendgridMailer(a.Config.SendgridAPIKey, a.Config.ReportEmailFrom)
	s := scheduler.NewScheduler(a.aggregator(resolver), resolver, mailer, a.Config.ReportCron, a.Config.ReportEmailTo)
	if err := s.Start(); err != nil {
		zap.S().Errorw("failed to start digest scheduler", "error", err)
		return
	}
	a.scheduler = s
}

// Close stops background work and releases every connection
func (a *App) Close(ctx context.Context) {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			zap.S().Warnw("failed to close redis", "error", err)
		}
	}
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			zap.S().Warnw("failed to disconnect from database", "error", err)
		}
	}
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// meteredCache counts growth cache hits and misses
type meteredCache struct {
	finance.GrowthCache
	metrics *api.Metrics
}

func (c meteredCache) Get(ctx context.Context, key string) ([]models.MonthlyGrowth, bool) {
	series, ok := c.GrowthCache.Get(ctx, key)
	if c.metrics != nil {
		c.metrics.CacheLookup(ok)
	}
	return series, ok
}
