package auth

import (
	"errors"
	"fmt"

	"github.com/GoArmGo/StudentRegistry/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher хеширует пароли через bcrypt.
// Соль генерируется на каждый вызов, поэтому два хеша одного пароля различаются.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher создаёт хешер; некорректная стоимость заменяется на bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", domain.NewValidationError("password is required")
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.NewValidationError("password must be at most 72 bytes")
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify возвращает false при любом несовпадении, в том числе при битом хеше.
func (h *BcryptHasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
