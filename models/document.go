package models

// DocumentList is the body of the document API listing endpoint.
type DocumentList struct {
	Paths []string `json:"paths"`
}
