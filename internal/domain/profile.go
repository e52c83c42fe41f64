package domain

// Language enumerates the supported locales.
type Language string

const (
	LanguageRU Language = "ru"
	LanguageKK Language = "kk"
	LanguageEN Language = "en"
)

// Profile carries the end-user fields shown to staff when a session or
// question reaches them. Persistence of profiles belongs to the storage
// collaborator; the core only reads them.
type Profile struct {
	UserID     int64
	FullName   string
	Course     string
	Faculty    string
	Department string
	Group      string
	Language   Language
}
