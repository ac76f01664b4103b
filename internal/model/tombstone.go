package model

import "time"

// Tombstoned is implemented by every soft-deletable entity.
type Tombstoned interface {
	IsDeleted() bool
}

func (p Post) IsDeleted() bool    { return p.Deleted }
func (c Comment) IsDeleted() bool { return c.Deleted }

// MarkDeleted flags the post as deleted. There is no inverse:
// once set, the tombstone stays.
func (p *Post) MarkDeleted(at time.Time) {
	if p.Deleted {
		return
	}
	p.Deleted = true
	p.DeletedAt = &at
}

// MarkDeleted flags the comment as deleted. See Post.MarkDeleted.
func (c *Comment) MarkDeleted(at time.Time) {
	if c.Deleted {
		return
	}
	c.Deleted = true
	c.DeletedAt = &at
}

// Visible returns the items that are not tombstoned, preserving order.
// Every read path that lists soft-deletable items goes through here.
func Visible[T Tombstoned](items []T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if !item.IsDeleted() {
			out = append(out, item)
		}
	}
	return out
}
