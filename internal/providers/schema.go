package providers

import "github.com/google/generative-ai-go/genai"

// SchemaToJSON converts a Gemini response schema into a plain JSON Schema
// document for providers that accept JSON Schema (OpenAI, Ollama).
func SchemaToJSON(s *genai.Schema) map[string]any {
	if s == nil {
		return nil
	}

	out := map[string]any{}
	if t := jsonType(s.Type); t != "" {
		out["type"] = t
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		enum := make([]any, len(s.Enum))
		for i, v := range s.Enum {
			enum[i] = v
		}
		out["enum"] = enum
	}
	if s.Items != nil {
		out["items"] = SchemaToJSON(s.Items)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = SchemaToJSON(prop)
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		required := make([]any, len(s.Required))
		for i, v := range s.Required {
			required[i] = v
		}
		out["required"] = required
	}
	return out
}

func jsonType(t genai.Type) string {
	switch t {
	case genai.TypeString:
		return "string"
	case genai.TypeNumber:
		return "number"
	case genai.TypeInteger:
		return "integer"
	case genai.TypeBoolean:
		return "boolean"
	case genai.TypeArray:
		return "array"
	case genai.TypeObject:
		return "object"
	default:
		return ""
	}
}
