package custody

import (
	"bytes"
	"sort"
	"sync"
)

// Registry tracks stake-weighted custodians for one coin type.
//
// The holder list is append-only and read-mostly: AddHolder is the only
// mutation, and ranking queries operate on a consistent snapshot, so a
// concurrent AddHolder can never change ranking results mid-call.
type Registry struct {
	mu       sync.RWMutex
	coinType string
	holders  []Custodian
}

// NewRegistry creates an empty registry for a coin type.
func NewRegistry(coinType string) *Registry {
	return &Registry{coinType: coinType}
}

// CoinType returns the registry's coin type.
func (r *Registry) CoinType() string {
	return r.coinType
}

// AddHolder appends a custodian record. There is no uniqueness constraint on
// (address, blockHeight): repeated registrations stack.
func (r *Registry) AddHolder(address []byte, balance uint64, blockHeight uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.holders = append(r.holders, Custodian{
		Address:     append([]byte(nil), address...),
		Balance:     balance,
		BlockHeight: blockHeight,
	})
}

// Len returns the number of holder records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.holders)
}

// TopNAtBlock returns up to n custodians ranked by descending balance, ties
// keeping insertion order. The returned copies are stamped with rank =
// position+1 and the QUERIED blockHeight, overwriting the stored height:
// the ranking always reflects the current in-memory holder list, not
// historical state at blockHeight. That is the defined behavior; true
// historical ranking needs a versioned-by-height store underneath.
func (r *Registry) TopNAtBlock(n int, blockHeight uint64) []Custodian {
	r.mu.RLock()
	snapshot := make([]Custodian, len(r.holders))
	copy(snapshot, r.holders)
	r.mu.RUnlock()

	sort.SliceStable(snapshot, func(i, j int) bool {
		return snapshot[i].Balance > snapshot[j].Balance
	})
	if n > len(snapshot) {
		n = len(snapshot)
	}
	if n < 0 {
		n = 0
	}
	top := make([]Custodian, n)
	for i := 0; i < n; i++ {
		top[i] = Custodian{
			Address:     append([]byte(nil), snapshot[i].Address...),
			Balance:     snapshot[i].Balance,
			Rank:        i + 1,
			BlockHeight: blockHeight,
		}
	}
	return top
}

// VerifyHolderAtBlock returns the first holder record matching both address
// and the STORED block height exactly.
func (r *Registry) VerifyHolderAtBlock(address []byte, blockHeight uint64) (Custodian, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, h := range r.holders {
		if h.BlockHeight == blockHeight && bytes.Equal(h.Address, address) {
			out := h
			out.Address = append([]byte(nil), h.Address...)
			return out, true
		}
	}
	return Custodian{}, false
}
