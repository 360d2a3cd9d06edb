package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/scholarstream/internal/common"
	"github.com/dmitrijs2005/scholarstream/internal/dbx"
	"github.com/dmitrijs2005/scholarstream/internal/server/checkout"
	"github.com/dmitrijs2005/scholarstream/internal/server/models"
	"github.com/dmitrijs2005/scholarstream/internal/server/repositories/applications"
	"github.com/dmitrijs2005/scholarstream/internal/server/repositories/payments"
	"github.com/dmitrijs2005/scholarstream/internal/server/repositories/scholarships"
	"github.com/dmitrijs2005/scholarstream/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// fakeRepoManager hands out the same in-memory repositories regardless of
// the DBTX it is given.
type fakeRepoManager struct {
	users        *fakeUsersRepo
	scholarships *fakeScholarshipsRepo
	apps         *fakeAppsRepo
	payments     *fakePaymentsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:        &fakeUsersRepo{byEmail: map[string]*models.User{}},
		scholarships: &fakeScholarshipsRepo{byID: map[string]*models.Scholarship{}},
		apps:         &fakeAppsRepo{byID: map[string]*models.Application{}},
		payments:     &fakePaymentsRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) SchemaVersion(context.Context, *sql.DB) (int64, error) {
	return 0, nil
}
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository               { return m.users }
func (m *fakeRepoManager) Scholarships(dbx.DBTX) scholarships.Repository { return m.scholarships }
func (m *fakeRepoManager) Applications(dbx.DBTX) applications.Repository { return m.apps }
func (m *fakeRepoManager) Payments(dbx.DBTX) payments.Repository         { return m.payments }

type fakeUsersRepo struct {
	byEmail map[string]*models.User
	err     error
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	u.ID = uuid.NewString()
	f.byEmail[u.Email] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeScholarshipsRepo struct {
	byID       map[string]*models.Scholarship
	lastFilter models.ScholarshipFilter
}

func (f *fakeScholarshipsRepo) List(_ context.Context, filter models.ScholarshipFilter) ([]*models.ScholarshipListing, error) {
	f.lastFilter = filter
	out := make([]*models.ScholarshipListing, 0, len(f.byID))
	for _, s := range f.byID {
		l := s.ScholarshipListing
		out = append(out, &l)
	}
	return out, nil
}

func (f *fakeScholarshipsRepo) GetByID(_ context.Context, id string) (*models.Scholarship, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return s, nil
}

// fakeAppsRepo mimics the ledger's unique (scholarship, email) constraint and
// its conditional paid transition. mutations counts writes.
type fakeAppsRepo struct {
	mu        sync.Mutex
	byID      map[string]*models.Application
	mutations int

	createErr    error
	markErr      error
	sessionErr   error
	beforeCreate func()
}

func (f *fakeAppsRepo) Create(_ context.Context, app *models.Application) error {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, a := range f.byID {
		if a.ScholarshipID == app.ScholarshipID && a.UserEmail == app.UserEmail {
			return common.ErrorAlreadyExists
		}
	}
	app.ID = uuid.NewString()
	cp := *app
	f.byID[app.ID] = &cp
	f.mutations++
	return nil
}

func (f *fakeAppsRepo) GetByID(_ context.Context, id string) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAppsRepo) FindByScholarshipAndEmail(_ context.Context, scholarshipID, email string) (*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.ScholarshipID == scholarshipID && a.UserEmail == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAppsRepo) ListByEmail(_ context.Context, email string) ([]*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Application, 0)
	for _, a := range f.byID {
		if a.UserEmail == email {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ApplicationDate.After(out[j].ApplicationDate) })
	return out, nil
}

func (f *fakeAppsRepo) SetCheckoutSession(_ context.Context, id, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return f.sessionErr
	}
	a, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.CheckoutSessionID = sessionID
	return nil
}

func (f *fakeAppsRepo) MarkPaid(_ context.Context, id, transactionID string, amount decimal.Decimal) (*models.Application, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return nil, false, f.markErr
	}
	a, ok := f.byID[id]
	if !ok || a.IsPaid() {
		return nil, false, nil
	}
	a.PaymentStatus = models.PaymentStatusPaid
	a.TransactionID = transactionID
	a.AmountPaid = &amount
	f.mutations++
	cp := *a
	return &cp, true, nil
}

func (f *fakeAppsRepo) count() (apps, mutations int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID), f.mutations
}

type fakePaymentsRepo struct {
	mu      sync.Mutex
	created []*models.Payment
	err     error
}

func (f *fakePaymentsRepo) Create(_ context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	p.ID = uuid.NewString()
	f.created = append(f.created, p)
	return nil
}

func (f *fakePaymentsRepo) ListByApplication(_ context.Context, applicationID string) ([]*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Payment
	for _, p := range f.created {
		if p.ApplicationID == applicationID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeProvider struct {
	mu       sync.Mutex
	sessions map[string]*checkout.Session
	requests []checkout.SessionRequest
	created  int
	err      error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: map[string]*checkout.Session{}}
}

func (p *fakeProvider) CreateSession(_ context.Context, req checkout.SessionRequest) (*checkout.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.created++
	p.requests = append(p.requests, req)
	id := "cs_" + req.ApplicationID
	s := &checkout.Session{
		ID:          id,
		URL:         "https://checkout.example/" + id,
		AmountTotal: checkout.UnitAmount(req.TotalPrice),
		Metadata: map[string]string{
			checkout.MetaApplicationID: req.ApplicationID,
			checkout.MetaScholarshipID: req.ScholarshipID,
			checkout.MetaUserEmail:     req.UserEmail,
		},
		PaymentStatus: "unpaid",
	}
	p.sessions[id] = s
	return s, nil
}

func (p *fakeProvider) GetSession(_ context.Context, id string) (*checkout.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	s, ok := p.sessions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *s
	return &cp, nil
}

// pay simulates the user completing the hosted checkout.
func (p *fakeProvider) pay(id, paymentIntent string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.sessions[id]
	s.PaymentStatus = checkout.PaymentStatusPaid
	s.PaymentIntentID = paymentIntent
}

type fakeArchive struct {
	mu     sync.Mutex
	put    []*models.Receipt
	putErr error
	url    string
	urlErr error
}

func (a *fakeArchive) Put(_ context.Context, r *models.Receipt) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.putErr != nil {
		return a.putErr
	}
	a.put = append(a.put, r)
	return nil
}

func (a *fakeArchive) PresignedURL(_ context.Context, app *models.Application) (string, error) {
	if a.urlErr != nil {
		return "", a.urlErr
	}
	return a.url + app.ID, nil
}
