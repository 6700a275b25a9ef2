package wallet

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/kysee/zksend/zk-send/shield"
	"github.com/kysee/zksend/zk-send/types"
)

// AssembleWitness converts a witness as served by the node into the
// authentication path the builder takes. Steps keep their order.
func AssembleWitness(rec *types.WitnessRecord) (*shield.Witness, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: empty witness", ErrMalformedInput)
	}

	w := &shield.Witness{
		TreeSize: rec.TreeSize,
		AuthPath: make([]shield.WitnessNode, len(rec.AuthPath)),
	}
	if err := parseFieldElement(rec.RootHash, &w.RootHash); err != nil {
		return nil, fmt.Errorf("%w: root hash: %v", ErrMalformedInput, err)
	}

	for i, item := range rec.AuthPath {
		var node shield.WitnessNode
		switch item.Side {
		case types.SideLeft:
			node.Side = shield.Left
		case types.SideRight:
			node.Side = shield.Right
		default:
			return nil, fmt.Errorf("%w: auth path %d: unknown side %q", ErrMalformedInput, i, item.Side)
		}
		if err := parseFieldElement(item.HashOfSibling, &node.Sibling); err != nil {
			return nil, fmt.Errorf("%w: auth path %d: %v", ErrMalformedInput, i, err)
		}
		w.AuthPath[i] = node
	}
	return w, nil
}

func parseFieldElement(s string, e *fr.Element) error {
	bz, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return err
	}
	return e.SetBytesCanonical(bz)
}
