package domain

// StaffStatus reflects whether a staff member is free to take a session.
type StaffStatus string

const (
	StaffStatusOpen StaffStatus = "OPEN"
	StaffStatusBusy StaffStatus = "BUSY"
)

// StaffMember models a support operator bound to a dedicated forum topic.
// The roster is fixed at startup; only Status changes at runtime.
type StaffMember struct {
	Name    string      `yaml:"name"`
	ChatID  int64       `yaml:"chat_id"`
	TopicID int64       `yaml:"topic_id"`
	Status  StaffStatus `yaml:"-"`
}
