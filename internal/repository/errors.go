package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// 一意制約違反・参照中など
	ErrConflict = errors.New("conflict")
)
