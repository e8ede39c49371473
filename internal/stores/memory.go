package stores

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mkopo_loans/internal/models"
)

// MemoryStore keeps every record in process memory. It backs development
// runs (STORE_DRIVER=memory) and the handler tests. The HTTP server is
// concurrent even though each user acts sequentially, so access is
// serialized with a mutex.
type MemoryStore struct {
	mu sync.Mutex

	users    map[uint]models.User
	profiles map[uint]models.Profile
	loans    map[uint]models.Loan
	payments map[uint][]models.Payment

	nextUserID uint
	nextLoanID uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[uint]models.User),
		profiles:   make(map[uint]models.Profile),
		loans:      make(map[uint]models.Loan),
		payments:   make(map[uint][]models.Payment),
		nextUserID: 1,
		nextLoanID: 1,
	}
}

// --- UserStore ---

func (m *MemoryStore) Create(user models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return models.User{}, ErrEmailTaken
		}
	}

	user.ID = m.nextUserID
	m.nextUserID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return user, nil
}

func (m *MemoryStore) GetByEmail(email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

func (m *MemoryStore) GetByID(id uint) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *MemoryStore) UpdatePassword(id uint, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Password = hash
	u.UpdatedAt = time.Now()
	m.users[id] = u
	return nil
}

func (m *MemoryStore) ListBorrowers() ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.User
	for _, u := range m.users {
		if u.Role == "user" {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- ProfileStore ---

func (m *MemoryStore) Get(userID uint) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MemoryStore) Update(userID uint, patch ProfileUpdate) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		p = models.Profile{UserID: userID}
		p.ID = userID
		p.CreatedAt = time.Now()
	}
	patch.apply(&p)
	p.UpdatedAt = time.Now()
	m.profiles[userID] = p
	return &p, nil
}

// --- LoanStore ---

func (m *MemoryStore) CreateLoan(loan models.Loan) (models.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	loan.ID = m.nextLoanID
	m.nextLoanID++
	loan.Reference = uuid.NewString()
	loan.Status = models.LoanStatusPending
	loan.ApprovedAt = nil
	loan.RejectedAt = nil
	loan.RejectedReason = ""
	loan.CreatedAt = time.Now()
	loan.UpdatedAt = loan.CreatedAt
	m.loans[loan.ID] = loan
	return loan, nil
}

func (m *MemoryStore) GetLoan(id uint) (models.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.loans[id]
	if !ok {
		return models.Loan{}, ErrLoanNotFound
	}
	return l, nil
}

func (m *MemoryStore) ListByUser(userID uint) ([]models.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Loan
	for _, l := range m.loans {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) ListAll() ([]models.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Loan, 0, len(m.loans))
	for _, l := range m.loans {
		out = append(out, l)
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) UpdateStatus(id uint, update StatusUpdate) (models.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.loans[id]
	if !ok {
		return models.Loan{}, ErrLoanNotFound
	}
	if err := applyStatus(&l, update); err != nil {
		return models.Loan{}, err
	}
	m.loans[id] = l
	return l, nil
}

// --- PaymentStore ---

func (m *MemoryStore) ReplaceForLoan(loanID uint, payments []models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.payments[loanID] = append([]models.Payment(nil), payments...)
	return nil
}

func (m *MemoryStore) ListByLoan(loanID uint) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := append([]models.Payment(nil), m.payments[loanID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func sortNewestFirst(loans []models.Loan) {
	sort.Slice(loans, func(i, j int) bool {
		if loans[i].CreatedAt.Equal(loans[j].CreatedAt) {
			return loans[i].ID > loans[j].ID
		}
		return loans[i].CreatedAt.After(loans[j].CreatedAt)
	})
}

// applyStatus enforces the one-directional transition out of pending.
// Shared by both store implementations.
func applyStatus(l *models.Loan, update StatusUpdate) error {
	if l.Status != models.LoanStatusPending {
		return ErrLoanNotPending
	}

	now := time.Now()
	switch update.Status {
	case models.LoanStatusApproved:
		l.Status = models.LoanStatusApproved
		l.ApprovedAt = &now
	case models.LoanStatusRejected:
		if strings.TrimSpace(update.Reason) == "" {
			return ErrReasonRequired
		}
		l.Status = models.LoanStatusRejected
		l.RejectedAt = &now
		l.RejectedReason = update.Reason
	default:
		return ErrLoanNotPending
	}
	l.UpdatedAt = now
	return nil
}
