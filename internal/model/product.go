package model

import "time"

// Product is a catalog entry. Entry items copy its fields at capture time and
// keep no reference back to the catalog row.
type Product struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Code      string    `json:"code" yaml:"code"`
	Size      string    `json:"size" yaml:"size"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}
