package entities

import (
	"strings"
	"time"
	"unicode"
)

// Classroom owns the shared room container of a turma
type Classroom struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Score     int64     `db:"score"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// MatchesTurma compares the classroom name with a turma label ignoring case,
// spacing and punctuation, so "3º A", "3a" and "3-A" all match.
func (c *Classroom) MatchesTurma(turma string) bool {
	n := NormalizeClassroomName(turma)
	return n != "" && NormalizeClassroomName(c.Name) == n
}

// NormalizeClassroomName folds a classroom or turma label to a comparison key
func NormalizeClassroomName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r == 'º' || r == 'ª':
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}
