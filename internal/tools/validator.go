package tools

import (
	"fmt"

	"github.com/Noah-wb/datachat/internal/llm"
)

// validateArgs checks args against the schema: required parameters must
// be present, values must match the declared primitive type, and enum
// constraints must hold. A nil schema accepts anything.
func validateArgs(schema *llm.ToolSchema, args map[string]any) error {
	if schema == nil {
		return nil
	}

	for _, name := range schema.Required {
		if _, ok := args[name]; !ok {
			return fmt.Errorf("missing required parameter %q", name)
		}
	}

	for name, value := range args {
		prop, ok := schema.Properties[name]
		if !ok {
			// 未宣告的參數放行，模型偶爾會多帶欄位
			continue
		}
		if err := checkType(name, prop, value); err != nil {
			return err
		}
	}
	return nil
}

func checkType(name string, prop llm.ToolProperty, value any) error {
	if value == nil {
		return fmt.Errorf("parameter %q is null", name)
	}

	switch prop.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("parameter %q must be a string", name)
		}
		if len(prop.Enum) > 0 && !contains(prop.Enum, s) {
			return fmt.Errorf("parameter %q must be one of %v", name, prop.Enum)
		}
	case "number":
		if !isJSONNumber(value) {
			return fmt.Errorf("parameter %q must be a number", name)
		}
	case "integer":
		f, ok := asFloat(value)
		if !ok || f != float64(int64(f)) {
			return fmt.Errorf("parameter %q must be an integer", name)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("parameter %q must be a boolean", name)
		}
	}
	return nil
}

func isJSONNumber(value any) bool {
	_, ok := asFloat(value)
	return ok
}

// asFloat 接受 JSON 解碼後可能出現的各種數值表示。
func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
