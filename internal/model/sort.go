package model

import "errors"

type SortOption string

const (
	SortByUpvotes SortOption = "upvotes"
	SortByRecent  SortOption = "recent"
)

var ErrUnknownSortOption = errors.New("unknown sort option")

// ParseSortOption accepts the empty string as the default order (upvotes).
func ParseSortOption(s string) (SortOption, error) {
	switch SortOption(s) {
	case "", SortByUpvotes:
		return SortByUpvotes, nil
	case SortByRecent, "timestamp":
		return SortByRecent, nil
	}
	return "", ErrUnknownSortOption
}
