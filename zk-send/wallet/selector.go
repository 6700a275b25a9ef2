package wallet

import (
	"fmt"

	"github.com/holiman/uint256"
)

// SpendCandidate is a decrypted note owned by the wallet address.
type SpendCandidate struct {
	*DecryptedNote
}

type Selection struct {
	Spends []SpendCandidate
	Total  *uint256.Int
}

// Owned returns the wallet's notes, sender by sender, and their total value.
func Owned(notes *NotesBySender, walletAddress string) ([]SpendCandidate, *uint256.Int) {
	total := uint256.NewInt(0)
	var owned []SpendCandidate
	for _, n := range notes.All() {
		if n.Owner != walletAddress {
			continue
		}
		owned = append(owned, SpendCandidate{n})
		total.Add(total, uint256.NewInt(n.Value))
	}
	return owned, total
}

// Select spends every owned note. The total must be strictly greater than
// required since the fee comes out of the same notes.
func Select(notes *NotesBySender, walletAddress string, required uint64) (*Selection, error) {
	owned, total := Owned(notes, walletAddress)
	if len(owned) == 0 || total.IsZero() {
		return nil, ErrNotAReceiver
	}
	if total.Cmp(uint256.NewInt(required)) <= 0 {
		return nil, fmt.Errorf("%w: have %s, sending %d", ErrInsufficientBalance, total.Dec(), required)
	}

	seen := make(map[uint64]struct{}, len(owned))
	for _, c := range owned {
		if !c.Indexed {
			return nil, fmt.Errorf("%w: note of %d has no tree index", ErrMalformedInput, c.Value)
		}
		if _, ok := seen[c.Index]; ok {
			return nil, fmt.Errorf("%w: duplicate note index %d", ErrMalformedInput, c.Index)
		}
		seen[c.Index] = struct{}{}
	}

	return &Selection{Spends: owned, Total: total}, nil
}
