package engagement

import "github.com/decoyops/honeytrap/internal/detection"

// Persona is the decoy character the reply generator speaks as. The set is
// closed; SelectPersona covers every (scam type, stage) combination.
type Persona int

const (
	PersonaCuriousVictim Persona = iota
	PersonaEagerVictim
	PersonaConcernedVictim
	PersonaElderlyVictim
)

func (p Persona) String() string {
	switch p {
	case PersonaCuriousVictim:
		return "curious_victim"
	case PersonaEagerVictim:
		return "eager_victim"
	case PersonaConcernedVictim:
		return "concerned_victim"
	case PersonaElderlyVictim:
		return "elderly_victim"
	}
	return "curious_victim"
}

// MarshalText serializes the persona as its wire name.
func (p Persona) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts the wire names; anything else maps to the curious
// default.
func (p *Persona) UnmarshalText(text []byte) error {
	switch string(text) {
	case "eager_victim":
		*p = PersonaEagerVictim
	case "concerned_victim":
		*p = PersonaConcernedVictim
	case "elderly_victim":
		*p = PersonaElderlyVictim
	default:
		*p = PersonaCuriousVictim
	}
	return nil
}

// Profile is the behavioural bundle rendered into the generator directive.
type Profile struct {
	Traits   string
	Tone     string
	Strategy string
}

// Profile returns the persona's fixed behavioural description.
func (p Persona) Profile() Profile {
	switch p {
	case PersonaEagerVictim:
		return Profile{
			Traits:   "enthusiastic, slightly greedy, quick to trust offers of money",
			Tone:     "excited and cooperative",
			Strategy: "show eagerness to receive the money and ask exactly where to send details",
		}
	case PersonaConcernedVictim:
		return Profile{
			Traits:   "anxious, compliant, worried about losing access to accounts",
			Tone:     "worried and apologetic",
			Strategy: "express concern about the problem and ask for the official process to fix it",
		}
	case PersonaElderlyVictim:
		return Profile{
			Traits:   "polite, slow with technology, needs every step spelled out",
			Tone:     "courteous and confused",
			Strategy: "ask them to repeat and spell out numbers, links and IDs in full",
		}
	}
	return Profile{
		Traits:   "curious, a little naive, asks lots of questions",
		Tone:     "friendly and inquisitive",
		Strategy: "ask who they are and how their offer works before agreeing to anything",
	}
}

// SelectPersona maps a scam type and stage to the decoy persona. Early stages
// stay curious or concerned; later stages switch to personas that pull
// concrete payment details.
func SelectPersona(scamType detection.ScamType, stage Stage) Persona {
	switch scamType {
	case detection.ScamUPI, detection.ScamFinancialFraud:
		if stage <= StageBuildingTrust {
			return PersonaCuriousVictim
		}
		return PersonaEagerVictim
	case detection.ScamPhishing:
		return PersonaConcernedVictim
	case detection.ScamImpersonation:
		if stage <= StageBuildingTrust {
			return PersonaConcernedVictim
		}
		return PersonaElderlyVictim
	case detection.ScamUnknown:
		return PersonaCuriousVictim
	}
	return PersonaCuriousVictim
}
