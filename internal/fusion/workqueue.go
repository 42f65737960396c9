package fusion

// Classification names the single way an account left the work queue.
type Classification string

const (
	// ClassLinked: the account was linked to exactly one fusion identity.
	ClassLinked Classification = "linked"
	// ClassCreated: the account caused creation of exactly one new identity.
	ClassCreated Classification = "created"
	// ClassPendingReview: the account is governed by an unresolved review
	// form and is excluded from this run's matching pass.
	ClassPendingReview Classification = "pending-review"
)

// WorkQueue is the depletable pool of managed accounts awaiting
// classification. Membership implies "not yet classified"; an account ID
// leaves the queue exactly once, with exactly one classification, and never
// re-enters during the same run.
type WorkQueue struct {
	items      map[string]*ManagedAccount
	classified map[string]Classification
	order      []string
}

// NewWorkQueue builds the queue from the fetched managed accounts,
// preserving fetch order for deterministic processing.
func NewWorkQueue(accounts []*ManagedAccount) *WorkQueue {
	q := &WorkQueue{
		items:      make(map[string]*ManagedAccount, len(accounts)),
		classified: make(map[string]Classification, len(accounts)),
		order:      make([]string, 0, len(accounts)),
	}
	for _, acct := range accounts {
		if _, dup := q.items[acct.ID]; dup {
			continue
		}
		q.items[acct.ID] = acct
		q.order = append(q.order, acct.ID)
	}
	return q
}

// Peek returns the account without removing it.
func (q *WorkQueue) Peek(id string) (*ManagedAccount, bool) {
	acct, ok := q.items[id]
	return acct, ok
}

// Take removes the account from the queue under the given classification.
// Taking an absent or already-classified ID is a no-op returning false, so
// no phase can process an account twice.
func (q *WorkQueue) Take(id string, c Classification) (*ManagedAccount, bool) {
	acct, ok := q.items[id]
	if !ok {
		return nil, false
	}
	delete(q.items, id)
	q.classified[id] = c
	return acct, true
}

// Remaining returns the unclassified accounts in fetch order.
func (q *WorkQueue) Remaining() []*ManagedAccount {
	out := make([]*ManagedAccount, 0, len(q.items))
	for _, id := range q.order {
		if acct, ok := q.items[id]; ok {
			out = append(out, acct)
		}
	}
	return out
}

// Len returns the number of unclassified accounts.
func (q *WorkQueue) Len() int {
	return len(q.items)
}

// Classification reports how an account left the queue, if it has.
func (q *WorkQueue) Classification(id string) (Classification, bool) {
	c, ok := q.classified[id]
	return c, ok
}

// Classified returns the count of accounts per classification.
func (q *WorkQueue) Classified() map[Classification]int {
	counts := make(map[Classification]int)
	for _, c := range q.classified {
		counts[c]++
	}
	return counts
}
