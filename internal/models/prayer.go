package models

import (
	"time"

	"namaz-tracker/internal/prayers"
)

// RecordResponse is a single day with every tracked item filled in.
type RecordResponse struct {
	Date         string          `json:"date"`
	Label        string          `json:"label"`
	Prayers      map[string]bool `json:"prayers"`
	Exists       bool            `json:"exists"`
	LastModified *time.Time      `json:"last_modified,omitempty"`
}

type SetPrayerRequest struct {
	Value *bool `json:"value"`
}

// PrayerUpdate is the result of a single-field write.
type PrayerUpdate struct {
	Date         string    `json:"date"`
	Prayer       string    `json:"prayer"`
	Value        bool      `json:"value"`
	LastModified time.Time `json:"last_modified"`
}

type RecordsResponse struct {
	Records []prayers.Record `json:"records"`
}

type ItemsResponse struct {
	Prayers []string `json:"prayers"`
}

type HistoryResponse struct {
	Days    int               `json:"days"`
	End     string            `json:"end"`
	Cards   []prayers.DayCard `json:"cards"`
	Empty   bool              `json:"empty"`
	Message string            `json:"message"`
}
