package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"sosmed/models"
)

// ErrEmailTaken reports a registration attempt with an email already in use.
var ErrEmailTaken = errors.New("email already registered")

// ErrNumberConflict reports that the registrant number collided with a
// concurrent registration even after retries.
var ErrNumberConflict = errors.New("registrant number conflict")

// uniqueNumberWidth is the zero-pad width of the sequence part. Sequences past
// 9999 simply produce a longer numeral; that is allowed overflow, not an error.
const uniqueNumberWidth = 4

// FormatUniqueNumber builds the registrant code from region codes and sequence.
func FormatUniqueNumber(provinceCode, cityCode string, seq uint) string {
	return strings.ToUpper(provinceCode) + strings.ToUpper(cityCode) + fmt.Sprintf("%0*d", uniqueNumberWidth, seq)
}

// NumberingService assigns per-(province, city) sequential registrant numbers.
//
// The sequence is derived by counting existing rows for the region pair inside
// the same transaction that inserts the user. Two concurrent registrations can
// still compute the same sequence; the unique index on users.unique_number
// rejects the loser and the whole transaction is retried with a fresh count.
type NumberingService struct {
	db *gorm.DB
}

// NewNumberingService creates a NumberingService on the given database.
func NewNumberingService(db *gorm.DB) *NumberingService {
	return &NumberingService{db: db}
}

// Next computes the next sequence and registrant code for the region pair
// using the supplied (possibly transactional) handle.
func (s *NumberingService) Next(tx *gorm.DB, provinceCode, cityCode string) (uint, string, error) {
	var count int64
	err := tx.Model(&models.User{}).
		Where("province_code = ? AND city_code = ?", provinceCode, cityCode).
		Count(&count).Error
	if err != nil {
		return 0, "", err
	}
	seq := uint(count) + 1
	return seq, FormatUniqueNumber(provinceCode, cityCode, seq), nil
}

// CreateUser assigns RegisterNumber and UniqueNumber and persists the user.
// On a unique_number collision the transaction is retried with a recount.
func (s *NumberingService) CreateUser(user *models.User) error {
	const maxAttempts = 3

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			seq, code, err := s.Next(tx, user.ProvinceCode, user.CityCode)
			if err != nil {
				return err
			}
			user.ID = 0
			user.RegisterNumber = seq
			user.UniqueNumber = code
			return tx.Create(user).Error
		})
		if err == nil {
			return nil
		}
		if isDuplicateKey(err) {
			if strings.Contains(err.Error(), "email") {
				return ErrEmailTaken
			}
			lastErr = err
			continue
		}
		return err
	}
	if lastErr != nil {
		return ErrNumberConflict
	}
	return nil
}

// isDuplicateKey recognizes unique-constraint violations across MySQL and SQLite.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
