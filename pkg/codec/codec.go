// Package codec contains the compression algorithms sharky can chain together, and the
// Stage type the pipeline composes them with.
package codec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sharky-compress/sharky/pkg/types"
)

var registry = make(map[string]types.Codec)

func init() {
	Register(&deflateCodec{})
	Register(&zstdCodec{})
	Register(&xzCodec{})
	Register(&lz4Codec{})
	Register(&noopCodec{})
}

// Register makes the given codec available to Lookup under its name. Registering a
// codec with an existing name replaces it.
func Register(c types.Codec) { registry[strings.ToLower(c.Name())] = c }

// Lookup returns the codec registered under the given name.
func Lookup(name string) (types.Codec, error) {
	c, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, &types.InvalidParameterError{
			Name:   "algorithm",
			Value:  name,
			Reason: fmt.Sprintf("must be one of %s", strings.Join(Names(), ", ")),
		}
	}
	return c, nil
}

// Names returns the sorted names of all registered codecs.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateLevel checks the level against the codec's accepted range.
func ValidateLevel(c types.Codec, level int) error {
	min, max := c.LevelRange()
	if level < min || level > max {
		return &types.InvalidParameterError{
			Name:   c.Name() + " level",
			Value:  level,
			Reason: fmt.Sprintf("must be between %d and %d", min, max),
		}
	}
	return nil
}
