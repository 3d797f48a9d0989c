package entities

import "time"

type AlertType string

const (
	AlertIrrigation AlertType = "irrigation"
	AlertFertilizer AlertType = "fertilizer"
	AlertPest       AlertType = "pest"
	AlertWeather    AlertType = "weather"
)

// AlertDraft is the output of rule evaluation, before dedup against the
// active alert set.
type AlertDraft struct {
	Type     AlertType `json:"type"`
	Priority Severity  `json:"priority"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
}

type Alert struct {
	ID             string     `json:"id"`
	FieldID        uint       `json:"field_id"`
	Type           AlertType  `json:"type"`
	Priority       Severity   `json:"priority"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
