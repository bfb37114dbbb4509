package repository

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultPageSize is the fixed page size of every list endpoint
const DefaultPageSize = 10

// Page selects one page of a list. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// NewPage normalizes a page number and applies the default size
func NewPage(number int) Page {
	if number < 1 {
		number = 1
	}
	return Page{Number: number, Size: DefaultPageSize}
}

// Offset returns the row offset of the page
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Limit()
}

// Limit returns the page size, falling back to the default
func (p Page) Limit() int {
	if p.Size <= 0 {
		return DefaultPageSize
	}
	return p.Size
}

func paginate(p Page) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Limit())
	}
}

// visibleBoardClause restricts rows to boards that are public or where userID holds a membership.
// The query must have "boards" in scope.
const visibleBoardClause = "boards.is_public = ? OR EXISTS (SELECT 1 FROM board_memberships bm WHERE bm.board_id = boards.id AND bm.user_id = ?)"

func visibleTo(userID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(visibleBoardClause, true, userID)
	}
}

// likeEscape makes backslash the LIKE escape character on every dialect
const likeEscape = ` ESCAPE '\'`

// containsPattern builds a case-insensitive LIKE pattern for a substring search
func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}
