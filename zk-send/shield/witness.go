package shield

import (
	"bytes"
	"errors"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/kysee/zksend/utils"
)

var ErrInvalidWitness = errors.New("invalid witness")

// Side tells which child the running hash is at one level of the path.
type Side uint8

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "Left"
	case Right:
		return "Right"
	default:
		return "Unknown"
	}
}

type WitnessNode struct {
	Side    Side
	Sibling fr.Element
}

// Witness is the authentication path of one note commitment, leaf first.
type Witness struct {
	TreeSize uint64
	RootHash fr.Element
	AuthPath []WitnessNode
}

// Root folds the path over the leaf hash of cm.
func (w *Witness) Root(cm []byte) []byte {
	sum := utils.LeafHash(cm)
	for _, n := range w.AuthPath {
		sib := n.Sibling.Marshal()
		if n.Side == Left {
			sum = utils.NodeHash(sum, sib)
		} else {
			sum = utils.NodeHash(sib, sum)
		}
	}
	return sum
}

func (w *Witness) Verify(cm []byte) bool {
	root := w.RootHash.Marshal()
	return bytes.Equal(w.Root(cm), root)
}
