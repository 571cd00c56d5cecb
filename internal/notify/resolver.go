package notify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/maimang/backend/internal/metrics"
)

// Record is a notification payload of externally-defined, variable shape.
// It is only ever consumed through the resolver's field probing; unknown
// fields are ignored.
type Record map[string]any

// Target is a navigable destination for one notification. EntityID is 0
// when the target is a list view or a raw link.
type Target struct {
	EntityType string `json:"entityType,omitempty"`
	EntityID   uint   `json:"entityID,omitempty"`
	Path       string `json:"path"`
	External   bool   `json:"external"`
}

type rule struct {
	name    string
	resolve func(Record) *Target
}

// rules is a strict priority chain: explicit links beat explicit ids beat
// text heuristics. First match wins.
var rules = []rule{
	{"link", resolveLink},
	{"entity_id", resolveEntityID},
	{"keywords", resolveKeywords},
}

// Resolve maps a record to a navigation target, or nil when nothing in the
// payload is recognizable. It never fails on malformed input; an ambiguous
// record degrades to nil rather than a guess.
func Resolve(rec Record) *Target {
	if rec == nil {
		metrics.RecordResolution("none")
		return nil
	}
	for _, r := range rules {
		if target := r.resolve(rec); target != nil {
			metrics.RecordResolution(r.name)
			return target
		}
	}
	metrics.RecordResolution("none")
	return nil
}

func resolveLink(rec Record) *Target {
	for _, key := range []string{"link", "link_url", "url"} {
		link, ok := rec[key].(string)
		if !ok || strings.TrimSpace(link) == "" {
			continue
		}
		link = strings.TrimSpace(link)

		lower := strings.ToLower(link)
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			return &Target{Path: link, External: true}
		}
		if !strings.HasPrefix(link, "/") {
			link = "/" + link
		}
		return &Target{Path: link}
	}
	return nil
}

func resolveEntityID(rec Record) *Target {
	type probe struct {
		entityType string
		idKey      string
		nestedKey  string
		route      string
	}
	probes := []probe{
		{"work", "work_id", "work", "/admin/works/%d"},
		{"comment", "comment_id", "comment", "/admin/comments/%d"},
		{"activity", "activity_id", "activity", "/admin/activities/%d"},
	}

	targetType, _ := rec["target_type"].(string)
	targetID, hasTargetID := coerceID(rec["target_id"])

	for _, p := range probes {
		if id, ok := coerceID(rec[p.idKey]); ok {
			return &Target{EntityType: p.entityType, EntityID: id, Path: fmt.Sprintf(p.route, id)}
		}
		if nested, ok := rec[p.nestedKey].(map[string]any); ok {
			if id, ok := coerceID(nested["id"]); ok {
				return &Target{EntityType: p.entityType, EntityID: id, Path: fmt.Sprintf(p.route, id)}
			}
		}
		if hasTargetID && targetType == p.entityType {
			return &Target{EntityType: p.entityType, EntityID: targetID, Path: fmt.Sprintf(p.route, targetID)}
		}
	}
	return nil
}

var keywordRoutes = []struct {
	entityType string
	path       string
	keywords   []string
}{
	{"work", "/admin/works", []string{"作品", "审核", "投稿", "work", "submission"}},
	{"comment", "/admin/comments", []string{"评论", "回复", "comment", "reply"}},
	{"activity", "/admin/activities", []string{"活动", "报名", "activity", "event"}},
}

func resolveKeywords(rec Record) *Target {
	title, _ := rec["title"].(string)
	message, _ := rec["message"].(string)
	text := strings.ToLower(title + " " + message)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	for _, route := range keywordRoutes {
		for _, keyword := range route.keywords {
			if strings.Contains(text, keyword) {
				return &Target{EntityType: route.entityType, Path: route.path}
			}
		}
	}
	return nil
}

// coerceID tolerates the id encodings seen in the wild: JSON numbers
// (float64), ints, and digit strings. Zero and negatives are not ids.
func coerceID(value any) (uint, bool) {
	switch v := value.(type) {
	case float64:
		if v > 0 && v == float64(uint(v)) {
			return uint(v), true
		}
	case int:
		if v > 0 {
			return uint(v), true
		}
	case int64:
		if v > 0 {
			return uint(v), true
		}
	case uint:
		if v > 0 {
			return v, true
		}
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
		if err == nil && parsed > 0 {
			return uint(parsed), true
		}
	}
	return 0, false
}
