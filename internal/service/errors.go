package service

import "errors"

var (
	// ErrMissingSlot means the action was called without the slot it needs
	ErrMissingSlot = errors.New("slot value missing")
	// ErrDatasetUnavailable means the nutrition dataset could not be loaded
	ErrDatasetUnavailable = errors.New("nutrition dataset unavailable")
	// ErrNoMatch means no dataset food cleared the similarity threshold
	ErrNoMatch = errors.New("no matching food")
	// ErrServiceUnavailable means the recipe search call failed or timed out
	ErrServiceUnavailable = errors.New("recipe service unavailable")
	// ErrNoCandidates means the recipe search returned no meals
	ErrNoCandidates = errors.New("no recipes for ingredient")
	// ErrDetailUnavailable means the recipe detail call failed or returned nothing
	ErrDetailUnavailable = errors.New("recipe details unavailable")
	// ErrUnknownAction means no action is registered under the requested name
	ErrUnknownAction = errors.New("unknown action")
)
