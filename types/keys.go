package types

const (
	// ModuleName is the codespace under which dexops errors are registered.
	ModuleName = "dexops"

	// DefaultPageLimit is the page size used when enumerating contract entities.
	// Pool and farm managers cap their paginated queries at 100 records.
	DefaultPageLimit = 100

	// AffirmativeToken is the answer required by the emergency confirmation gate.
	AffirmativeToken = "yes"

	// ShortAffirmativeToken is the answer required by the pool deployment prompt.
	ShortAffirmativeToken = "y"
)
