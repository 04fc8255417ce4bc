// Package store persists users, postings and applications through gorm.
package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"eden/internal/apperr"
)

const newestFirst = "created_at desc, id desc"

// notFound translates gorm's missing-row error into the core's NotFoundError.
func notFound(err error, op, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(op, format, args...)
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s anywhere, with wildcards in s escaped.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
