package services

import "errors"

// Dataset service errors
var (
	ErrReloadInProgress = errors.New("dataset reload already in progress")
	ErrNoRunner         = errors.New("no pipeline runner configured")
)
