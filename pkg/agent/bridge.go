package agent

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/feedpilot/feedpilot/pkg/tools"
)

// BridgeTools converts catalog descriptors into the Messages API tool
// parameter shape. Name and description move between fields; the schema's
// properties and required list are handed over untouched.
func BridgeTools(descriptors []tools.Descriptor) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, 0, len(descriptors))
	for _, d := range descriptors {
		tool := anthropic.ToolParam{
			Name: d.Name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: d.InputSchema["properties"],
			},
		}
		if d.Description != "" {
			tool.Description = anthropic.String(d.Description)
		}
		if required := requiredList(d.InputSchema["required"]); len(required) > 0 {
			tool.InputSchema.Required = required
		}
		result = append(result, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return result
}

// requiredList accepts both the natural Go shape and the JSON-decoded one.
func requiredList(v any) []string {
	switch req := v.(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
