package store

// termID is a store-local identifier for an interned term. Zero is never
// assigned, so a zero key component sorts before every real id and can be
// used as the lower bound of a prefix scan.
type termID uint64

// Positions of a quad in SPOG order.
const (
	posSubject = iota
	posPredicate
	posObject
	posGraph
)

// spog holds the term ids of a quad in subject, predicate, object, graph order.
type spog [4]termID

// key is an index entry: the ids of a quad permuted into the index order.
type key [4]termID

func lessKey(a, b key) bool {
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Index represents one permutation of the quad key.
type Index byte

const (
	// Merged across contexts (graph last)
	IndexSPOG Index = iota
	IndexPOSG
	IndexOSPG

	// Per context (graph first)
	IndexGSPO
	IndexGPOS
	IndexGOSP

	// Total number of indexes
	indexCount
)

// indexOrder maps each key slot of an index to the quad position stored in it.
var indexOrder = [indexCount][4]int{
	IndexSPOG: {posSubject, posPredicate, posObject, posGraph},
	IndexPOSG: {posPredicate, posObject, posSubject, posGraph},
	IndexOSPG: {posObject, posSubject, posPredicate, posGraph},
	IndexGSPO: {posGraph, posSubject, posPredicate, posObject},
	IndexGPOS: {posGraph, posPredicate, posObject, posSubject},
	IndexGOSP: {posGraph, posObject, posSubject, posPredicate},
}

func (i Index) String() string {
	switch i {
	case IndexSPOG:
		return "spog"
	case IndexPOSG:
		return "posg"
	case IndexOSPG:
		return "ospg"
	case IndexGSPO:
		return "gspo"
	case IndexGPOS:
		return "gpos"
	case IndexGOSP:
		return "gosp"
	default:
		return "unknown"
	}
}

func (i Index) encode(q spog) key {
	var k key
	for slot, pos := range indexOrder[i] {
		k[slot] = q[pos]
	}
	return k
}

func (i Index) decode(k key) spog {
	var q spog
	for slot, pos := range indexOrder[i] {
		q[pos] = k[slot]
	}
	return q
}

// selectIndex chooses the index whose key begins with every bound position,
// so that a match is a single prefix range scan. It returns the index and the
// length of the bound prefix.
func selectIndex(bound [4]bool) (Index, int) {
	sBound := bound[posSubject]
	pBound := bound[posPredicate]
	oBound := bound[posObject]
	gBound := bound[posGraph]

	n := 0
	for _, b := range bound {
		if b {
			n++
		}
	}

	if !gBound {
		switch {
		case sBound && pBound:
			return IndexSPOG, n // S, P, [O]
		case pBound && oBound:
			return IndexPOSG, n // P, O
		case oBound && sBound:
			return IndexOSPG, n // O, S
		case sBound:
			return IndexSPOG, n
		case pBound:
			return IndexPOSG, n
		case oBound:
			return IndexOSPG, n
		default:
			// Nothing bound, full scan in SPOG order
			return IndexSPOG, 0
		}
	}

	switch {
	case sBound && pBound && oBound:
		// Fully bound: exact lookup
		return IndexSPOG, n
	case sBound && pBound:
		return IndexGSPO, n // G, S, P
	case pBound && oBound:
		return IndexGPOS, n // G, P, O
	case oBound && sBound:
		return IndexGOSP, n // G, O, S
	case sBound:
		return IndexGSPO, n
	case pBound:
		return IndexGPOS, n
	case oBound:
		return IndexGOSP, n
	default:
		return IndexGSPO, n // G only
	}
}
