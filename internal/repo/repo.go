package repo

import (
	"context"
	"encoding/json"
	"strings"

	"gorm.io/gorm"

	"github.com/happyfeet/storefront/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(models.All()...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// jsonElementPattern matches a string element inside a JSON-encoded list
// column. Matches are a superset; callers confirm them in Go.
func jsonElementPattern(value string) string {
	enc, _ := json.Marshal(strings.ToLower(value))
	return "%" + likeEscaper.Replace(string(enc)) + "%"
}

func containsFold(list []string, value string) bool {
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}
