package cache

import (
	"encoding/json"
	"fmt"
	"strings"
)

const keySep = ":"

// Key builds the cache key for a query name and its parameters. Parameters
// are encoded as JSON, so struct fields keep declaration order and map keys
// are sorted; equal parameters always give equal keys.
func Key(name string, params any) string {
	if params == nil {
		return name
	}
	b, err := json.Marshal(params)
	if err != nil {
		return name + keySep + fmt.Sprintf("%#v", params)
	}
	return name + keySep + string(b)
}

// belongsTo reports whether key was built for query name.
func belongsTo(key, name string) bool {
	return key == name || strings.HasPrefix(key, name+keySep)
}
