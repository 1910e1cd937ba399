package engine

import (
	"encoding/json"

	"github.com/kaptinlin/jsonrepair"
)

// scanJSONObjects extracts every top-level balanced {...} region from text.
// The scan is string- and escape-aware and handles arbitrarily nested
// objects, so a task payload containing object values tokenizes correctly.
func scanJSONObjects(text string) []string {
	var objects []string
	i := 0
	for i < len(text) {
		if text[i] != '{' {
			i++
			continue
		}
		depth := 0
		inString := false
		escaped := false
		j := i
		for j < len(text) {
			ch := text[j]
			if escaped {
				escaped = false
				j++
				continue
			}
			if ch == '\\' && inString {
				escaped = true
				j++
				continue
			}
			if ch == '"' {
				inString = !inString
			}
			if !inString {
				switch ch {
				case '{':
					depth++
				case '}':
					depth--
					if depth == 0 {
						objects = append(objects, text[i:j+1])
					}
				}
				if depth == 0 && ch == '}' {
					break
				}
			}
			j++
		}
		if depth != 0 {
			// Unmatched opening brace; skip past it.
			i++
			continue
		}
		i = j + 1
	}
	return objects
}

// unmarshalObject decodes one scanned candidate into a generic map. Model
// output is hand-written JSON, so on a syntax error the candidate is run
// through jsonrepair once before giving up.
func unmarshalObject(candidate string) (map[string]interface{}, error) {
	var obj map[string]interface{}
	err := json.Unmarshal([]byte(candidate), &obj)
	if err == nil {
		return obj, nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, repairErr := jsonrepair.JSONRepair(candidate)
		if repairErr != nil {
			return nil, err
		}
		if retryErr := json.Unmarshal([]byte(fixed), &obj); retryErr == nil {
			return obj, nil
		}
	}
	return nil, err
}
