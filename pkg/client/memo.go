package client

import "time"

// Memo is a single note as returned by the Memos list API.
type Memo struct {
	// Name is the server-assigned resource identifier, e.g. "memos/106".
	Name        string       `json:"name"`
	UID         string       `json:"uid,omitempty"`
	Content     string       `json:"content"`
	Visibility  string       `json:"visibility,omitempty"`
	Pinned      bool         `json:"pinned,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	CreateTime  time.Time    `json:"createTime"`
	UpdateTime  time.Time    `json:"updateTime,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment describes a binary resource attached to a memo.
type Attachment struct {
	// Name is the resource identifier, e.g. "attachments/42". The final
	// path segment is the attachment id used in file URLs.
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Type     string `json:"type,omitempty"`
	Size     string `json:"size,omitempty"`
}

// MemoPage is one page of a memo listing plus the continuation cursor.
// An empty NextPageToken means no further pages exist.
type MemoPage struct {
	Memos         []Memo
	NextPageToken string
}
