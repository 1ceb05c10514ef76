package models

import (
	"fmt"
	"strings"
	"time"
)

// MenuItem is one catalog entry. Items are grouped by an internal category
// key which the site maps to a friendly display name.
type MenuItem struct {
	ID          int64     `json:"id" yaml:"id"`
	Category    string    `json:"category" yaml:"category"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Price       float64   `json:"price" yaml:"price"`
	ImageRef    string    `json:"image_ref" yaml:"image_ref"`
	BestSeller  bool      `json:"best_seller" yaml:"best_seller"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// MenuCategory pairs the internal category key with its display name and items.
type MenuCategory struct {
	Key     string      `json:"key"`
	Display string      `json:"display"`
	Items   []*MenuItem `json:"items"`
}

// FormatPrice renders a price with thousands separators, e.g. 1234.5 -> "1,234.50".
func FormatPrice(p float64) string {
	s := fmt.Sprintf("%.2f", p)
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + "." + parts[1]
	if neg {
		out = "-" + out
	}
	return out
}
