package engagement

// Stage is the coarse phase of an engagement, derived from how many turns the
// decoy persona has already taken. It never decreases; Extraction is
// absorbing.
type Stage int

const (
	StageInitial Stage = iota
	StageBuildingTrust
	StageInformationGathering
	StageExtraction
)

// StageFor maps an agent-turn count to its stage.
func StageFor(agentTurns int) Stage {
	switch {
	case agentTurns <= 1:
		return StageInitial
	case agentTurns <= 3:
		return StageBuildingTrust
	case agentTurns <= 6:
		return StageInformationGathering
	}
	return StageExtraction
}

func (s Stage) String() string {
	switch s {
	case StageInitial:
		return "initial_contact"
	case StageBuildingTrust:
		return "building_trust"
	case StageInformationGathering:
		return "information_gathering"
	case StageExtraction:
		return "extraction_phase"
	}
	return "initial_contact"
}

// MarshalText serializes the stage as its wire name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the wire names; anything else maps to StageInitial.
func (s *Stage) UnmarshalText(text []byte) error {
	switch string(text) {
	case "building_trust":
		*s = StageBuildingTrust
	case "information_gathering":
		*s = StageInformationGathering
	case "extraction_phase":
		*s = StageExtraction
	default:
		*s = StageInitial
	}
	return nil
}

// Objectives returns what the decoy should be trying to learn at this stage.
func (s Stage) Objectives() string {
	switch s {
	case StageInitial:
		return "- Show curiosity\n- Ask who they are\n- Ask why they're contacting you"
	case StageBuildingTrust:
		return "- Express interest or concern\n- Ask for more details about their offer/claim\n- Probe for company name, official details"
	case StageInformationGathering:
		return "- Ask how the process works\n- Request specific steps\n- Ask about account numbers, UPI IDs they'll use\n- Show willingness but seek clarity"
	case StageExtraction:
		return "- Extract maximum details (full account numbers, exact UPI IDs, links)\n- Show readiness to proceed\n- Ask 'what happens next?' to get more info"
	}
	return "- Show curiosity\n- Ask who they are\n- Ask why they're contacting you"
}
