package roster

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CredentialPolicy derives the initial secret of a newly created student.
type CredentialPolicy interface {
	Name() string
	Initial(roll string) string
	// Derivable reports whether the secret can be recomputed from the roll
	// number alone, which lets a student sign in without typing a password.
	Derivable() bool
}

// RollNumberPolicy uses the normalized roll number as the initial password.
// Anyone who knows a roll number can sign in as that student until the
// password is changed.
type RollNumberPolicy struct{}

func (RollNumberPolicy) Name() string              { return "roll_number" }
func (RollNumberPolicy) Initial(roll string) string { return roll }
func (RollNumberPolicy) Derivable() bool            { return true }

// RandomPolicy assigns an unguessable password; an admin hands it out or resets it.
type RandomPolicy struct{}

func (RandomPolicy) Name() string { return "random" }

func (RandomPolicy) Initial(string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func (RandomPolicy) Derivable() bool { return false }

// PolicyByName resolves the CREDENTIAL_POLICY setting.
func PolicyByName(name string) (CredentialPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "roll_number":
		return RollNumberPolicy{}, nil
	case "random":
		return RandomPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown credential policy %q", name)
}
