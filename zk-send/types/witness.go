package types

const (
	SideLeft  = "Left"
	SideRight = "Right"
)

// AuthPathItem is one step of an authentication path. Side tells whether the
// node being hashed up is the Left or the Right child at this level.
type AuthPathItem struct {
	Side          string `json:"side"`
	HashOfSibling string `json:"hashOfSibling"`
}

// WitnessRecord is the inclusion proof of one note commitment, captured at a
// given tree size. Steps are ordered from the leaf to the root.
type WitnessRecord struct {
	TreeSize uint64         `json:"treeSize"`
	RootHash string         `json:"rootHash"`
	AuthPath []AuthPathItem `json:"authPath"`
}
