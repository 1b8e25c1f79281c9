package mockdoc

import (
	"html/template"
)

// document is the root value of the transcript template.
type document struct {
	Title     string
	CSS       template.CSS
	Summary   summary
	Exchanges []*exchange
	Failures  []string
}

type summary struct {
	Total       int
	Fulfilled   int
	Passthrough int
	Aborted     int
	Failed      int
}

type exchange struct {
	ID        string
	Time      string
	Method    string
	URL       string
	Action    string
	Pattern   string
	Fallbacks []string
	Reason    string
	Err       string
	Request   *message
	Response  *message
}

type message struct {
	// The status code of a response, 0 for a request.
	Status int
	Header []headerItem
	Code   template.HTML
	Lang   string
}

type headerItem struct {
	Key   string
	Value string
}
