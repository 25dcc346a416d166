// Package schemas holds the JSON Schemas of the documents the service accepts.
package schemas

import "embed"

// Schema file names
const (
	ExtractedCV       = "extracted_cv.schema.json"
	UpdateDecision    = "update_decision.schema.json"
	VerifyRequest     = "verify_request.schema.json"
	InvalidateRequest = "invalidate_request.schema.json"
)

// Names lists every embedded schema
var Names = []string{ExtractedCV, UpdateDecision, VerifyRequest, InvalidateRequest}

// Files contains the schema documents
//
//go:embed *.schema.json
var Files embed.FS
