package model

import (
	"time"
)

// Record represents one parsed access log line
type Record struct {
	Host      string    `json:"host"`
	Ident     *string   `json:"ident,omitempty"`
	User      *string   `json:"user,omitempty"`
	Time      time.Time `json:"time"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Protocol  string    `json:"protocol"`
	Status    int       `json:"status"`
	Bytes     int64     `json:"bytes"`
	Referer   *string   `json:"referer,omitempty"`
	UserAgent *string   `json:"user_agent,omitempty"`
	Raw       string    `json:"-"`
}

// Epoch returns the record timestamp as UTC seconds since the Unix epoch
func (r *Record) Epoch() int64 {
	return r.Time.Unix()
}

// HasUserAgent reports whether the user agent field carries a non-empty value
func (r *Record) HasUserAgent() bool {
	return r.UserAgent != nil && *r.UserAgent != ""
}

// StatusClass returns the hundreds digit of the status code (4 for 404, 5 for 503)
func (r *Record) StatusClass() int {
	return r.Status / 100
}
