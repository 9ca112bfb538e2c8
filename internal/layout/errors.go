package layout

import "errors"

var (
	ErrSectionNotFound    = errors.New("layout: section not found")
	ErrDuplicateSectionID = errors.New("layout: duplicate section id")
	ErrMissingSectionID   = errors.New("layout: section id is required")
)
