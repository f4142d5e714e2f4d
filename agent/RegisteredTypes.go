package agent

import (
	"fmt"
	"sort"
	"sync"

	"github.com/samuelfneumann/gosac/environment"
)

// Type represents a specific type of ActorCritic
type Type string

const (
	// Policy with two independent single-head critics
	MLPActorCritic Type = "MLPActorCritic"

	// Policy with one dual-head critic and a temperature network
	MultiQActorCritic Type = "MultiQActorCritic"

	// Policy with one multi-output critic
	SingleQActorCritic Type = "SingleQActorCritic"

	// Policy and multi-output critic in a single unit
	United Type = "ACUnited"
)

// Constructor creates an ActorCritic for the given observation and
// action spaces
type Constructor func(obs, act environment.Spec, c Config) (ActorCritic,
	error)

// Registered types with the package. Once a Type has been registered
// with this map, ActorCritics of that type can be created with New().
//
// No Types are registered with this package upon initialization.
// Each package implementing an ActorCritic registers its own Types to
// avoid circular imports.
var (
	registeredMu    sync.RWMutex
	registeredTypes = make(map[Type]Constructor)
)

// Register registers a Constructor for an ActorCritic Type. It panics
// if the Type is already registered.
func Register(t Type, c Constructor) {
	registeredMu.Lock()
	defer registeredMu.Unlock()

	if _, ok := registeredTypes[t]; ok {
		panic(fmt.Sprintf("register: type %v already registered", t))
	}
	registeredTypes[t] = c
}

// New creates a new ActorCritic of Type t
func New(t Type, obs, act environment.Spec, c Config) (ActorCritic, error) {
	registeredMu.RLock()
	constructor, ok := registeredTypes[t]
	registeredMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("new: unregistered type %q", t)
	}
	return constructor(obs, act, c)
}

// Types returns the registered Types in lexicographic order
func Types() []Type {
	registeredMu.RLock()
	defer registeredMu.RUnlock()

	types := make([]Type, 0, len(registeredTypes))
	for t := range registeredTypes {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
