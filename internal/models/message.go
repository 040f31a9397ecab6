package models

import "time"

// Message is one mail candidate as surfaced by the source adapter. It is
// validated at the adapter boundary and never mutated afterwards.
type Message struct {
	ID      string
	Subject string
	Sender  string
	Date    time.Time
	Body    string
	IsHTML  bool
	Labels  []string
}

// Note is the payload handed to the note sink. IDSuffix keeps two notes with
// identical rendered content from being silently merged by the sink.
type Note struct {
	Title    string
	Body     string
	Tags     []string
	IDSuffix string
}
