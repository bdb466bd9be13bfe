package services

// Shared result shapes for batch operations. Batch work never aborts on a
// bad record; failures land in Errors and processing continues.

type BulkError struct {
	Index      int    `json:"index"`
	Identifier string `json:"identifier,omitempty"`
	Message    string `json:"message"`
}

type BulkResult struct {
	Created int         `json:"created"`
	Updated int         `json:"updated"`
	Errors  []BulkError `json:"errors"`
}

type ExpireReport struct {
	Expired int      `json:"expired"`
	Errors  []string `json:"errors"`
}
