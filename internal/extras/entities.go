package extras

import "log/slog"

// entityTypes is the closed whitelist of text entity kinds.
var entityTypes = map[string]struct{}{
	"mention":               {},
	"hashtag":               {},
	"cashtag":               {},
	"bot_command":           {},
	"url":                   {},
	"email":                 {},
	"phone_number":          {},
	"bold":                  {},
	"italic":                {},
	"underline":             {},
	"strikethrough":         {},
	"spoiler":               {},
	"blockquote":            {},
	"expandable_blockquote": {},
	"code":                  {},
	"pre":                   {},
	"text_link":             {},
	"text_mention":          {},
	"custom_emoji":          {},
}

// requiredFields maps entity types to the sub-field they must carry.
var requiredFields = map[string]string{
	"text_link":    "url",
	"text_mention": "user",
	"pre":          "language",
	"custom_emoji": "custom_emoji_id",
}

// validEntities keeps the entities that pass validation against a text
// of length textLen and reports how many were dropped.
func (s *Sanitizer) validEntities(raw any, textLen int) ([]map[string]any, int) {
	list, ok := raw.([]any)
	if !ok {
		if typed, isTyped := raw.([]map[string]any); isTyped {
			list = make([]any, len(typed))
			for i, e := range typed {
				list[i] = e
			}
		} else {
			return nil, 0
		}
	}
	kept := make([]map[string]any, 0, len(list))
	dropped := 0
	for _, item := range list {
		entity, ok := item.(map[string]any)
		if !ok || !validEntity(entity, textLen) {
			dropped++
			continue
		}
		kept = append(kept, entity)
	}
	if dropped > 0 {
		s.logger.Debug("entity validation", slog.Int("kept", len(kept)), slog.Int("dropped", dropped))
	}
	return kept, dropped
}

func validEntity(entity map[string]any, textLen int) bool {
	kind, ok := entity["type"].(string)
	if !ok {
		return false
	}
	if _, known := entityTypes[kind]; !known {
		return false
	}
	offset, ok := asInt(entity["offset"])
	if !ok || offset < 0 {
		return false
	}
	length, ok := asInt(entity["length"])
	if !ok || length <= 0 {
		return false
	}
	if offset+length > textLen {
		return false
	}
	if field, required := requiredFields[kind]; required {
		value, present := entity[field]
		if !present || value == nil {
			return false
		}
		if s, isString := value.(string); isString && s == "" {
			return false
		}
	}
	return true
}

// asInt accepts the numeric forms JSON decoding produces.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
