package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrProjectExists indicates another project already uses the name.
	ErrProjectExists = errors.New("project name already exists")
	// ErrProjectHasTickets indicates the project still references tickets.
	ErrProjectHasTickets = errors.New("project still has tickets")
	// ErrInvalidInput indicates invalid project input.
	ErrInvalidInput = errors.New("invalid project input")
)
