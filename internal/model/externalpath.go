package model

import (
	"github.com/rs/zerolog"

	"github.com/smanolloff/vcmi-mlclient/internal/schema"
)

// ExternalPath carries the path of a trained model that the host loads.
// The path is not checked here.
type ExternalPath struct {
	placeholder
}

func NewExternalPath(path string, logger zerolog.Logger) *ExternalPath {
	return &ExternalPath{placeholder{name: path, logger: logger}}
}

func (m *ExternalPath) Type() schema.ModelType { return schema.ModelTypeExternalPath }

// Path returns the model path verbatim.
func (m *ExternalPath) Path() string { return m.name }
