package externalapi

// BlockStatus represents the admission status of a block
type BlockStatus byte

// Clone returns a clone of BlockStatus
func (bs BlockStatus) Clone() BlockStatus {
	return bs
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = BlockStatus(0)

// Equal returns whether bs equals to other
func (bs BlockStatus) Equal(other BlockStatus) bool {
	return bs == other
}

const (
	// StatusInvalid indicates that the block failed a consistency check and
	// was permanently marked invalid.
	StatusInvalid BlockStatus = iota

	// StatusValid indicates that the block was fully validated and committed
	// to the DAG.
	StatusValid

	// StatusPending indicates that the block is buffered while its missing
	// dependencies are fetched.
	StatusPending

	// StatusMalformed indicates that the block failed the format/signature
	// check. Such blocks are stored for audit but are never admitted, and
	// the check is never retried.
	StatusMalformed
)

var blockStatusStrings = map[BlockStatus]string{
	StatusInvalid:   "Invalid",
	StatusValid:     "Valid",
	StatusPending:   "Pending",
	StatusMalformed: "Malformed",
}

func (bs BlockStatus) String() string {
	return blockStatusStrings[bs]
}
