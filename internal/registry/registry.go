package registry

import (
	"github.com/lchen64/pid-diffusion/internal/config"
)

// Registry holds all the trainer definitions for a single application
// instance.
type Registry struct {
	TrainerRegistry map[string]*config.TrainerDefinition
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		TrainerRegistry: make(map[string]*config.TrainerDefinition),
	}
}

// PopulateFromModel copies the loaded trainer definitions from the config
// model into the registry for easy access during execution.
func (r *Registry) PopulateFromModel(model *config.Model) {
	for key, val := range model.Trainers {
		r.TrainerRegistry[key] = val
	}
}

// Trainer returns the definition for the given trainer type.
func (r *Registry) Trainer(trainerType string) (*config.TrainerDefinition, bool) {
	def, ok := r.TrainerRegistry[trainerType]
	return def, ok
}
