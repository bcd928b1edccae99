package core

// Environment identifies the deployment environment of the service.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

func (e Environment) String() string {
	return string(e)
}

// ParseEnvironment normalises the provided value into one of the known
// environments. Short aliases are accepted, and unknown values fall back
// to Development so the service can still start locally.
func ParseEnvironment(v string) Environment {
	switch v {
	case "production", "prod":
		return Production
	case "staging", "stage":
		return Staging
	default:
		return Development
	}
}
