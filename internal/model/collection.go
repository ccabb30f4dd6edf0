package model

// CollectionType identifies one of the three knowledge partitions each
// persona owns.
type CollectionType string

const (
	CollectionProfile CollectionType = "profile"
	CollectionWorks   CollectionType = "works"
	CollectionQuotes  CollectionType = "quotes"
)

// AllCollectionTypes returns the collection types in presentation order:
// profile is the interpretive lens, so it always comes first.
func AllCollectionTypes() []CollectionType {
	return []CollectionType{CollectionProfile, CollectionWorks, CollectionQuotes}
}

func ParseCollectionType(value string) (CollectionType, bool) {
	switch CollectionType(value) {
	case CollectionProfile, CollectionWorks, CollectionQuotes:
		return CollectionType(value), true
	}
	return "", false
}

// CollectionName maps a (persona, collection type) pair to its vector
// collection. Collections are never shared across personas.
func CollectionName(personaID string, t CollectionType) string {
	return personaID + "_" + string(t)
}
