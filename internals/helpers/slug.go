package helper

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	reHyphen   = regexp.MustCompile(`-+`)
)

const DefaultSlugMaxLen = 100

// Slugify: teks bebas → [a-z0-9-], diakritik dibuang, fallback "item".
// "Siti Ḥafṣah binti ʿAli" → "siti-hafsah-binti-ali"
func Slugify(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultSlugMaxLen
	}
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	s = reNonAlnum.ReplaceAllString(b.String(), "-")
	s = reHyphen.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if utf8.RuneCountInString(s) > maxLen {
		s = strings.Trim(string([]rune(s)[:maxLen]), "-")
	}
	if s == "" {
		s = "item"
	}
	return s
}

// SlugTaken dipakai EnsureUniqueSlug untuk cek bentrok (case-insensitive).
type SlugTaken func(ctx context.Context, lower string) (bool, error)

// EnsureUniqueSlug mencoba base, base-2, base-3, ... sampai tidak bentrok.
func EnsureUniqueSlug(ctx context.Context, base string, maxLen int, taken SlugTaken) (string, error) {
	if maxLen <= 0 {
		maxLen = DefaultSlugMaxLen
	}
	slug := base
	for i := 0; i < 25; i++ {
		hit, err := taken(ctx, strings.ToLower(slug))
		if err != nil {
			return "", err
		}
		if !hit {
			return slug, nil
		}
		suffix := fmt.Sprintf("-%d", i+2)
		slug = trimForSuffix(base, suffix, maxLen) + suffix
	}
	return "", fmt.Errorf("slug %q: no free suffix after 25 attempts", base)
}

// GormSlugTaken: cek LOWER(column) = ? di table, scopeFn opsional (mis. exclude id sendiri).
func GormSlugTaken(db *gorm.DB, table, column string, scopeFn func(*gorm.DB) *gorm.DB) SlugTaken {
	return func(ctx context.Context, lower string) (bool, error) {
		q := db.WithContext(ctx).Table(table)
		if scopeFn != nil {
			q = scopeFn(q)
		}
		var n int64
		if err := q.Where(fmt.Sprintf("LOWER(%s) = ?", column), lower).Count(&n).Error; err != nil {
			return false, err
		}
		return n > 0, nil
	}
}

// trimForSuffix memotong base agar base+suffix <= maxLen.
func trimForSuffix(base, suffix string, maxLen int) string {
	keep := maxLen - len(suffix)
	if keep < 1 {
		return "x"
	}
	rs := []rune(base)
	if len(rs) > keep {
		rs = rs[:keep]
	}
	out := strings.Trim(string(rs), "-")
	if out == "" {
		out = "x"
	}
	return out
}
