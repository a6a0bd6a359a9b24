package handler

import "errors"

var (
	ErrNotFound         = errors.New("the requested resource could not be found")
	ErrTileNotFound     = errors.New("tile not found")
	InternalServerError = errors.New("server encountered a problem and could not process your request")
)
