package domain

// FAQEntry is one numbered frequently-asked question.
type FAQEntry struct {
	Number   string `yaml:"number"`
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}
