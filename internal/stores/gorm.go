package stores

import (
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"mkopo_loans/internal/models"
)

// GormStore persists to Postgres through GORM. It is the default driver
// in deployments; the schema is auto-migrated at boot.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// --- UserStore ---

func (g *GormStore) Create(user models.User) (models.User, error) {
	if err := g.db.Create(&user).Error; err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return models.User{}, ErrEmailTaken
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return user, nil
}

func (g *GormStore) GetByEmail(email string) (models.User, error) {
	var user models.User
	if err := g.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (g *GormStore) GetByID(id uint) (models.User, error) {
	var user models.User
	if err := g.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (g *GormStore) UpdatePassword(id uint, hash string) error {
	res := g.db.Model(&models.User{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (g *GormStore) ListBorrowers() ([]models.User, error) {
	var users []models.User
	if err := g.db.Where("role = ?", "user").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// --- ProfileStore ---

func (g *GormStore) Get(userID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := g.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (g *GormStore) Update(userID uint, patch ProfileUpdate) (*models.Profile, error) {
	var profile models.Profile
	err := g.db.Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = models.Profile{UserID: userID}
	} else if err != nil {
		return nil, err
	}

	patch.apply(&profile)
	if err := g.db.Save(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// --- LoanStore ---

func (g *GormStore) CreateLoan(loan models.Loan) (models.Loan, error) {
	loan.ID = 0
	loan.Reference = uuid.NewString()
	loan.Status = models.LoanStatusPending
	loan.ApprovedAt = nil
	loan.RejectedAt = nil
	loan.RejectedReason = ""
	if err := g.db.Create(&loan).Error; err != nil {
		return models.Loan{}, err
	}
	return loan, nil
}

func (g *GormStore) GetLoan(id uint) (models.Loan, error) {
	var loan models.Loan
	if err := g.db.First(&loan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Loan{}, ErrLoanNotFound
		}
		return models.Loan{}, err
	}
	return loan, nil
}

func (g *GormStore) ListByUser(userID uint) ([]models.Loan, error) {
	var loans []models.Loan
	if err := g.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&loans).Error; err != nil {
		return nil, err
	}
	return loans, nil
}

func (g *GormStore) ListAll() ([]models.Loan, error) {
	var loans []models.Loan
	if err := g.db.Order("created_at DESC, id DESC").Find(&loans).Error; err != nil {
		return nil, err
	}
	return loans, nil
}

// UpdateStatus runs the pending check and the stamp inside one
// transaction so a concurrent decision cannot double-transition.
func (g *GormStore) UpdateStatus(id uint, update StatusUpdate) (models.Loan, error) {
	var loan models.Loan
	err := g.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&loan, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLoanNotFound
			}
			return err
		}
		if err := applyStatus(&loan, update); err != nil {
			return err
		}
		return tx.Save(&loan).Error
	})
	if err != nil {
		return models.Loan{}, err
	}
	return loan, nil
}

// --- PaymentStore ---

func (g *GormStore) ReplaceForLoan(loanID uint, payments []models.Payment) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("loan_id = ?", loanID).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		for i := range payments {
			payments[i].LoanID = loanID
		}
		if len(payments) == 0 {
			return nil
		}
		return tx.Create(&payments).Error
	})
}

func (g *GormStore) ListByLoan(loanID uint) ([]models.Payment, error) {
	var payments []models.Payment
	if err := g.db.Where("loan_id = ?", loanID).Order("due_date ASC").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
