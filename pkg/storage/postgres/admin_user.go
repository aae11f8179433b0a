package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"dreamsite/internal/gateway"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrAdminExists = errors.New("admin already exists")

var (
	compareHash = bcrypt.CompareHashAndPassword

	// unknownEmailHash is compared against when no account matches, so
	// unknown emails cost the same bcrypt work as wrong passwords.
	unknownEmailHash = sync.OnceValue(func() []byte {
		hash, _ := bcrypt.GenerateFromPassword([]byte("no such admin"), bcrypt.DefaultCost)
		return hash
	})
)

// checkPassword reports gateway.ErrInvalidCredentials unless password matches
// hash. A nil hash stands for an unknown account and never matches.
func checkPassword(hash []byte, password string) error {
	if hash == nil {
		_ = compareHash(unknownEmailHash(), []byte(password))
		return gateway.ErrInvalidCredentials
	}
	if err := compareHash(hash, []byte(password)); err != nil {
		return gateway.ErrInvalidCredentials
	}
	return nil
}

// AdminUser is a moderator account. Only the bcrypt hash of the password is kept.
type AdminUser struct {
	ID           uint      `gorm:"primaryKey"`
	Email        string    `gorm:"type:text;not null;uniqueIndex:idx_admin_user_email"`
	PasswordHash string    `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (AdminUser) TableName() string {
	return "admin_user"
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAdmin stores a new moderator account.
func (p *PostgresClient) CreateAdmin(ctx context.Context, email, password string) (*AdminUser, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &AdminUser{Email: normalizeEmail(email), PasswordHash: string(hash)}
	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(user)

	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAdminExists, user.Email)
	}
	return user, nil
}

// Authenticate returns the account for email when password matches. Unknown
// emails and wrong passwords both yield gateway.ErrInvalidCredentials.
func (p *PostgresClient) Authenticate(ctx context.Context, email, password string) (*AdminUser, error) {
	var user AdminUser
	err := p.DB.WithContext(ctx).
		Where("email = ?", normalizeEmail(email)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, checkPassword(nil, password)
	}
	if err != nil {
		return nil, err
	}

	if err := checkPassword([]byte(user.PasswordHash), password); err != nil {
		return nil, err
	}
	return &user, nil
}

func (p *PostgresClient) GetAdmin(ctx context.Context, id uint) (*AdminUser, error) {
	var user AdminUser
	if err := p.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
