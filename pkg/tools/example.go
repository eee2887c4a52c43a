package tools

import (
	"fmt"
	"sort"
	"strings"
)

// XMLExample renders a tool call for tool with placeholder values for its
// required arguments.
func XMLExample(tool Tool) string {
	var builder strings.Builder

	builder.WriteString("<tool>\n")
	builder.WriteString("<server_name>local</server_name>\n")
	builder.WriteString(fmt.Sprintf("<tool_name>%s</tool_name>\n", tool.Name()))
	builder.WriteString("<arguments>\n")

	schema := tool.Schema()
	properties, _ := schema["properties"].(map[string]interface{})
	required, _ := schema["required"].([]string)

	names := append([]string(nil), required...)
	sort.Strings(names)
	for _, name := range names {
		prop, ok := properties[name].(map[string]interface{})
		if !ok {
			continue
		}
		builder.WriteString(fmt.Sprintf("  <%s>%s</%s>\n", name, exampleValue(prop), name))
	}

	builder.WriteString("</arguments>\n")
	builder.WriteString("</tool>")

	return builder.String()
}

func exampleValue(prop map[string]interface{}) string {
	if example, ok := prop["example"].(string); ok {
		return example
	}
	propType, _ := prop["type"].(string)
	switch propType {
	case "integer":
		return "42"
	case "number":
		return "3.14"
	case "boolean":
		return "true"
	default:
		return "value"
	}
}
