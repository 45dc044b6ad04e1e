package models

import (
	"encoding/json"
	"time"
)

// SubmissionRecord represents one autograph certification request
type SubmissionRecord struct {
	TrackingCode string    `json:"requestId"`
	Email        string    `json:"email"`
	Images       []string  `json:"images"`
	SubmittedAt  time.Time `json:"submittedAt,omitzero"`
}

// UnmarshalJSON also accepts "trackingCode" for records written by older tooling.
func (r *SubmissionRecord) UnmarshalJSON(data []byte) error {
	type plain SubmissionRecord
	var aux struct {
		plain
		LegacyCode string `json:"trackingCode"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = SubmissionRecord(aux.plain)
	if r.TrackingCode == "" {
		r.TrackingCode = aux.LegacyCode
	}
	return nil
}
