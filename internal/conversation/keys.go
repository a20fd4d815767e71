package conversation

import "fmt"

const keyPrefix = "convstore"

// userKeys are the three storage keys derived for one user. Derivation is
// pure: the same version and user ID always map to the same keys.
type userKeys struct {
	messages string
	model    string
	meta     string
}

func keysFor(version, userID string) userKeys {
	base := fmt.Sprintf("%s:%s:%s", keyPrefix, version, userID)
	return userKeys{
		messages: base + ":messages",
		model:    base + ":model",
		meta:     base + ":meta",
	}
}

func (k userKeys) all() []string {
	return []string{k.messages, k.model, k.meta}
}
