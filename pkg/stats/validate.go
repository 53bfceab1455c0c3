package stats

import (
	"errors"
	"strings"
)

// ErrUnusable marks an extraction that failed validation and was not stored.
var ErrUnusable = errors.New("unusable extraction")

// Validate decides whether an extracted profile is usable for persistence.
// The bar is deliberately low — partial numeric data is accepted because not
// every field is always legible — but a record without identity or guild
// context has no key to store under and is rejected. The returned slice
// itemizes the missing categories for the operator-facing failure reason.
func Validate(p Profile) (bool, []string) {
	var missing []string
	if p.Name == "" && p.ID() == "" {
		missing = append(missing, "player identity")
	}
	if p.GuildName == "" {
		missing = append(missing, "guild name")
	}
	key := 0
	for _, v := range []string{p.NetWorth, p.Prestige, p.Invested} {
		if v != "" {
			key++
		}
	}
	if key < 2 {
		missing = append(missing, "key stats (need 2 of net worth/prestige/investment)")
	}
	return len(missing) == 0, missing
}

// RejectionReason renders the missing categories as one human-readable line.
func RejectionReason(missing []string) string {
	return ErrUnusable.Error() + ": missing " + strings.Join(missing, ", ")
}
