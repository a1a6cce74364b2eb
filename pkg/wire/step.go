package wire

// Step identifies a phase of the cross-validation test protocol.
type Step uint8

const (
	// StepInit is the initial phase before any capability has been set up.
	StepInit Step = 0

	// StepSetup enables WiFi scan monitoring on the hub.
	StepSetup Step = 1

	// StepValidate compares host and hub scan results.
	StepValidate Step = 2
)

// String returns the step name.
func (s Step) String() string {
	switch s {
	case StepInit:
		return "INIT"
	case StepSetup:
		return "SETUP"
	case StepValidate:
		return "VALIDATE"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true if the step is a known protocol step.
func (s Step) IsValid() bool {
	return s <= StepValidate
}
