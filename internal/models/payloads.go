package models

import "time"

// These structs define the JSON payloads for HTTP requests and responses
// between the web app, the Cloud Workflow and the worker Cloud Functions.

// ImageEntry is one uploaded photo. Photos sharing a headtitle form one section and the
// caption becomes a paragraph of that section.
type ImageEntry struct {
	URL       string `json:"url"`
	Caption   string `json:"caption,omitempty"`
	Headtitle string `json:"headtitle,omitempty"`
}

// FormattedMessage is a message already rendered to paragraph text by the web app.
type FormattedMessage struct {
	FormattedMessage string `json:"formattedMessage"`
}

// SectionGeneratorRequest is the input for the section-generator function.
type SectionGeneratorRequest struct {
	Email    string             `json:"email"`
	Images   []ImageEntry       `json:"images"`
	Messages []FormattedMessage `json:"messages"`
	Seed     *int64             `json:"seed,omitempty"`
}

// GeneratedSection describes one uploaded section in a response.
type GeneratedSection struct {
	SectionID     string `json:"sectionId"`
	Headtitle     string `json:"headtitle"`
	URI           string `json:"uri"`
	PreviewURI    string `json:"previewUri,omitempty"`
	PageCount     int    `json:"pageCount"`
	OverflowCount int    `json:"overflowCount"`
}

// SectionGeneratorResponse is the output of the section-generator function.
type SectionGeneratorResponse struct {
	Status      string             `json:"status"`
	Sections    []GeneratedSection `json:"sections"`
	Failed      int                `json:"failed"`
	ExecutionID string             `json:"executionId,omitempty"`
}

// BookMessage is a single message in a message book request.
type BookMessage struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageSender groups the messages one person left.
type MessageSender struct {
	SenderName  string        `json:"senderName"`
	SenderEmail string        `json:"senderEmail"`
	Messages    []BookMessage `json:"messages"`
}

// MessageBookRequest is the input for the message-book function.
type MessageBookRequest struct {
	Email    string          `json:"email"`
	Messages []MessageSender `json:"messages"`
}

// MessageBookResponse is the output of the message-book function.
type MessageBookResponse struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// YearbookAssemblerRequest is the input for the yearbook-assembler function.
type YearbookAssemblerRequest struct {
	Email       string `json:"email"`
	ExecutionID string `json:"executionId"`
}

// YearbookAssemblerResponse is the output of the yearbook-assembler function.
type YearbookAssemblerResponse struct {
	Status       string `json:"status"`
	YearbookURI  string `json:"yearbookUri"`
	SectionCount int    `json:"sectionCount"`
	PageCount    int    `json:"pageCount"`
}
