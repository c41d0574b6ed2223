package domain

import "fmt"

var (
	MessageSuccessGetTags = "success get tags"
	MessageSuccessGetTag  = "success get tag"
	MessageFailedGetTags  = "failed to get tags"
	MessageFailedGetTag   = "failed to get tag"

	ErrTagNotFound = fmt.Errorf("%w: tag not found", ErrNotFound)
)

type TagResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}
