package session

import (
	"errors"
	"strings"
	"sync"
)

// CredentialEnv is the environment variable holding the default GigaChat
// credential. It is read once at process start and used for every session
// that has not set its own key.
const CredentialEnv = "GIGA_API_KEY"

// DefaultModel is the chat model used until a session selects another variant.
const DefaultModel = "GigaChat-2"

// ErrInvalidModelVariant is returned when a variant outside the recognized
// Lite/Max/Pro set is requested. The previous selection stays in effect.
var ErrInvalidModelVariant = errors.New("invalid model variant")

// variantModels maps the user-facing variant tokens, lower-cased, to the
// provider model identifiers.
var variantModels = map[string]string{
	"lite": "GigaChat-2",
	"max":  "GigaChat-2-Max",
	"pro":  "GigaChat-2-Pro",
}

// Variants lists the recognized variant tokens in menu order.
func Variants() []string {
	return []string{"Lite", "Max", "Pro"}
}

// Settings holds the mutable configuration of one chat session: the provider
// credential and the selected chat model. Both are read when an index is
// built; the built chain keeps its own snapshot, so later changes apply only
// to the next build.
type Settings struct {
	mu         sync.RWMutex
	credential string
	model      string
}

// NewSettings creates session settings seeded with the given default
// credential (usually the value of GIGA_API_KEY) and the Lite-tier model.
func NewSettings(defaultCredential string) *Settings {
	return &Settings{
		credential: defaultCredential,
		model:      DefaultModel,
	}
}

// Credential returns the active provider credential, which may be empty when
// neither the environment default nor a user key is present.
func (s *Settings) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// SetCredential replaces the active provider credential.
func (s *Settings) SetCredential(credential string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = strings.TrimSpace(credential)
}

// Model returns the provider identifier of the active chat model.
func (s *Settings) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Variant returns the user-facing token of the active chat model.
func (s *Settings) Variant() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, variant := range Variants() {
		if variantModels[strings.ToLower(variant)] == s.model {
			return variant
		}
	}
	return s.model
}

// SetVariant selects a chat model by variant token (Lite, Max or Pro,
// case-insensitive). An unrecognized token returns ErrInvalidModelVariant and
// leaves the current selection unchanged.
func (s *Settings) SetVariant(variant string) error {
	model, ok := variantModels[strings.ToLower(strings.TrimSpace(variant))]
	if !ok {
		return ErrInvalidModelVariant
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
	return nil
}
