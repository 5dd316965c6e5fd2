package tools

// Descriptor is the catalog entry offered to the model for one tool. The
// same shape serves both the compiled-in catalog and catalogs discovered
// from a remote server; InputSchema holds a JSON-Schema-like document that
// is passed along untouched.
type Descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

func DescriptorFor(t Tool) Descriptor {
	return Descriptor{
		Name:        t.Name(),
		Description: t.Description(),
		InputSchema: t.Parameters(),
	}
}
