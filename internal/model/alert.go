package model

// Audience selects which chat receives an alert.
type Audience string

const (
	AudienceBroadcast Audience = "broadcast"
	AudiencePrivate   Audience = "private"
)

// AlertKind indicates what raised the alert.
type AlertKind string

const (
	AlertCritical   AlertKind = "CRITICAL"
	AlertNotable    AlertKind = "NOTABLE"
	AlertEscalation AlertKind = "ESCALATION"
	AlertFailure    AlertKind = "FAILURE"
)

// Alert is a message produced by classification.
type Alert struct {
	Kind     AlertKind
	Audience Audience
	Asset    string
	Text     string
}
