package doc

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Record is the document type managed from the command line: a flat set of
// string fields plus timestamps.
type Record struct {
	Fields    map[string]string `json:"fields" yaml:"fields" bson:"fields"`
	CreatedAt time.Time         `json:"created_at" yaml:"created_at" bson:"created_at"`
	UpdatedAt time.Time         `json:"updated_at" yaml:"updated_at" bson:"updated_at"`
}

// Init makes Fields usable on fresh and decoded records.
func (r *Record) Init() {
	if r.Fields == nil {
		r.Fields = map[string]string{}
	}
}

// apply sets and removes fields and stamps the update time.
func (r *Record) apply(set map[string]string, unset []string, now time.Time) {
	r.Init()
	for k, v := range set {
		r.Fields[k] = v
	}
	for _, k := range unset {
		delete(r.Fields, k)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
}

// keys returns the field names in sorted order.
func (r *Record) keys() []string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseAssignments parses KEY=VALUE arguments. VALUE may contain '='.
func parseAssignments(args []string) (map[string]string, error) {
	set := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid assignment %q, want KEY=VALUE", arg)
		}
		set[k] = v
	}
	return set, nil
}
