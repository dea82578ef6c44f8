package configstore

import "encoding/json"

// stripTransientFields resets every step's status to "pending" and
// clears its result, wherever a "steps" array appears in the document —
// this reaches workflowGroups[*].template.workflows[*].steps[*],
// workflows[*].steps[*], and workflowGroupTemplates[*].workflows[*]
// uniformly, without hardcoding each path (spec §4.8, §3 invariant 6).
// It also returns every task in a "workflowGroups" array whose status is
// "running" to "idle", so no task is persisted as running.
// A malformed body is returned unchanged; Save's JSON validity check
// runs before this is called.
func stripTransientFields(body []byte) []byte {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return body
	}
	walk(doc)
	out, err := json.Marshal(doc)
	if err != nil {
		return body
	}
	return out
}

func walk(v any) {
	switch node := v.(type) {
	case map[string]any:
		if steps, ok := node["steps"].([]any); ok {
			stripSteps(steps)
		}
		if groups, ok := node["workflowGroups"].([]any); ok {
			for _, raw := range groups {
				if group, ok := raw.(map[string]any); ok && group["status"] == "running" {
					group["status"] = "idle"
				}
			}
		}
		for _, child := range node {
			walk(child)
		}
	case []any:
		for _, child := range node {
			walk(child)
		}
	}
}

func stripSteps(steps []any) {
	for _, raw := range steps {
		step, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		step["status"] = "pending"
		delete(step, "result")
	}
}
