package models

import (
	"github.com/google/uuid"

	"ratiodash/internal/engine"
)

type DatasetSummary struct {
	Name       string   `json:"name"`
	Title      string   `json:"title"`
	Percent    bool     `json:"percent"`
	HasCountry bool     `json:"has_country"`
	Rows       int      `json:"rows"`
	Indicators int      `json:"indicators"`
	Fields     []string `json:"fields"`
}

type CategoryIndicators struct {
	Category   string   `json:"category"`
	Indicators []string `json:"indicators"`
	Default    string   `json:"default"`
}

type BankOptions struct {
	Countries []string `json:"countries,omitempty"`
	Banks     []string `json:"banks"`
}

type ViewResponse struct {
	Indicator string         `json:"indicator"`
	Rows      int            `json:"rows"`
	Points    []engine.Point `json:"points"`
}

// SessionResponse is returned by every session endpoint.
type SessionResponse struct {
	ID      uuid.UUID    `json:"id"`
	Dataset string       `json:"dataset"`
	State   engine.State `json:"state"`
}

// ChangeRequest sets one selector of a session.
type ChangeRequest struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
