package session

import (
	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

// ModelInfo is the identity record of a model as the host sees it.
type ModelInfo struct {
	Type    schema.ModelType `yaml:"type" json:"type"`
	Name    string           `yaml:"name" json:"name"`
	Version int              `yaml:"version,omitempty" json:"version,omitempty"`
}

// Describe returns the identity of m. Placeholder versions are not
// queried since they carry none.
func Describe(m schema.Model) ModelInfo {
	info := ModelInfo{Type: m.Type(), Name: m.Name()}
	switch info.Type {
	case schema.ModelTypeUser, schema.ModelTypeFunction:
		info.Version = m.Version()
	}
	return info
}

type contextDoc struct {
	ID       string    `yaml:"id"`
	Training bool      `yaml:"training"`
	Left     ModelInfo `yaml:"left"`
	Right    ModelInfo `yaml:"right"`
}

// MarshalYAML implements yaml.Marshaler.
func (c *Context) MarshalYAML() (any, error) {
	return contextDoc{
		ID:       c.ID.String(),
		Training: c.Training,
		Left:     Describe(c.Left),
		Right:    Describe(c.Right),
	}, nil
}
