package domain

// ContentKind tags a message payload with its delivery primitive. The relay
// routes by this tag and never inspects or rewrites the payload itself.
type ContentKind string

const (
	ContentText        ContentKind = "TEXT"
	ContentImage       ContentKind = "IMAGE"
	ContentClip        ContentKind = "CLIP"
	ContentVoice       ContentKind = "VOICE"
	ContentVideoNote   ContentKind = "VIDEO_NOTE"
	ContentFile        ContentKind = "FILE"
	ContentSticker     ContentKind = "STICKER"
	ContentUnsupported ContentKind = "UNSUPPORTED"
)

// Content is an opaque message payload. Text is set for ContentText, FileID
// references transport-side media for every other kind; Caption rides along
// unmodified when present.
type Content struct {
	Kind    ContentKind
	Text    string
	FileID  string
	Caption string
}

// TextContent is a shorthand for plain text payloads.
func TextContent(text string) Content {
	return Content{Kind: ContentText, Text: text}
}
