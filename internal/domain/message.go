package domain

// ChunkMessage is the payload of one queued chunk: everything the eventual
// consumer needs to run the chunk through the immediate path without any
// other lookup. Recipients carry their personalization data; the content is
// the job's base content, substituted per recipient at consume time.
type ChunkMessage struct {
	JobID       string      `json:"job_id"`
	ChunkIndex  int         `json:"chunk_index"`
	TotalChunks int         `json:"total_chunks"`
	From        string      `json:"from"`
	ReplyTo     string      `json:"reply_to,omitempty"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"html_content"`
	TextContent string      `json:"text_content,omitempty"`
	Recipients  []Recipient `json:"recipients"`
	Campaign    string      `json:"campaign,omitempty"`
	Type        string      `json:"type,omitempty"`
}

// Content reassembles the base rendered content carried by the message.
func (m ChunkMessage) Content() RenderedContent {
	return RenderedContent{Subject: m.Subject, HTML: m.HTMLContent, Text: m.TextContent}
}
