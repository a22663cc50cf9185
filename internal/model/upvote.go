package model

func ContainsMember[T comparable](set []T, id T) bool {
	for _, member := range set {
		if member == id {
			return true
		}
	}
	return false
}
