package model

// Metadata is the structured header block prepended to document bodies.
// Only sensitivity is required; everything else is optional.
type Metadata struct {
	Sensitivity      string   `yaml:"sensitivity"`
	ContextDocuments []string `yaml:"context_documents"`
	Tags             []string `yaml:"tags"`
	AllowedAudiences []string `yaml:"allowed_audiences"`
	RequiresApproval bool     `yaml:"requires_approval"`
	RetentionDays    int      `yaml:"retention_days"`
	PIIPresent       bool     `yaml:"pii_present"`
}

// Document is a resolved document plus its parsed metadata.
type Document struct {
	Path             string      `json:"path"`
	ResolvedLocation string      `json:"resolved_location"`
	Sensitivity      Sensitivity `json:"sensitivity"`
	Metadata         Metadata    `json:"metadata"`
	Body             string      `json:"body"`

	// HasMetadata records whether a metadata block was present at all,
	// so strict deployments can distinguish "defaulted" from "declared".
	HasMetadata bool `json:"has_metadata"`
}
