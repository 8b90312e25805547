// Package regnum выдаёт регистрационные номера вида ADM-XXXXXX-2025 / REG-XXXXXX-2025.
package regnum

import (
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/GoArmGo/StudentRegistry/internal/domain"
)

const (
	alphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	randomLength = 6
	// наибольшее кратное len(alphabet), не превышающее 256
	rejectAbove = 252
)

// Generator не гарантирует уникальность: её обеспечивает уникальный индекс в БД.
type Generator struct {
	random io.Reader
	now    func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{random: rand.Reader, now: time.Now}
}

// Prefix возвращает префикс номера для роли.
func Prefix(role domain.Role) string {
	if role == domain.RoleAdmin {
		return "ADM"
	}
	return "REG"
}

// Generate возвращает новый номер для роли.
func (g *Generator) Generate(role domain.Role) (string, error) {
	suffix := make([]byte, 0, randomLength)
	buf := make([]byte, 16)
	for len(suffix) < randomLength {
		if _, err := io.ReadFull(g.random, buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= rejectAbove {
				continue
			}
			suffix = append(suffix, alphabet[int(b)%len(alphabet)])
			if len(suffix) == randomLength {
				break
			}
		}
	}
	return fmt.Sprintf("%s-%s-%d", Prefix(role), suffix, g.now().UTC().Year()), nil
}
