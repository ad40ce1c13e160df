package config

import (
	"fmt"

	"github.com/cognicore/seqlearn/pkg/seqlearn/dataset"
	"github.com/cognicore/seqlearn/pkg/seqlearn/internalerr"
	"github.com/cognicore/seqlearn/pkg/seqlearn/model"
)

// Components holds the typed settings derived from a Config
type Components struct {
	Kinds        []model.Kind
	ModelOptions model.Options
	Dataset      dataset.Options
}

// Components validates c and converts it into the options the packages take
func (c Config) Components() (*Components, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	kinds, err := model.ParseKinds(c.Models)
	if err != nil {
		return nil, fmt.Errorf("models: %v: %w", err, internalerr.ErrInvalidConfig)
	}

	modelOpts, err := model.Options{ChunkLength: c.ChunkLength}.Validate()
	if err != nil {
		return nil, fmt.Errorf("chunk_length: %v: %w", err, internalerr.ErrInvalidConfig)
	}

	return &Components{
		Kinds:        kinds,
		ModelOptions: modelOpts,
		Dataset: dataset.Options{
			Delimiter: []rune(c.Delimiter)[0],
			MinRT:     c.MinRT,
			SDCutoff:  c.SDCutoff,
		},
	}, nil
}
