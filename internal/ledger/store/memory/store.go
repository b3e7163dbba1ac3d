// Package memory is the in-process ledger store.
//
// A single-slot semaphore serializes every transaction. Writes inside a transaction go to a
// staged overlay and are applied to the committed state only when the
// transaction function returns nil, so a failed operation leaves no trace.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"badgeledger/internal/ledger/models"
	"badgeledger/internal/ledger/ports"
	id "badgeledger/pkg/domain"
	dErrors "badgeledger/pkg/domain-errors"
	"badgeledger/pkg/platform/sentinel"
)

// defaultTxTimeout bounds how long a caller waits for the writer lock.
const defaultTxTimeout = 5 * time.Second

type outboxEntry struct {
	event models.Event
}

type state struct {
	badges   map[id.BadgeID]models.Badge
	accounts map[id.Account]models.AccountState
	listings map[id.ListingID]models.Listing
	escrows  map[id.ProjectID]models.ProjectEscrow
	balances map[id.Account]decimal.Decimal

	lastBadgeID   id.BadgeID
	lastListingID id.ListingID
	lastEventSeq  uint64
}

func newState() *state {
	return &state{
		badges:   make(map[id.BadgeID]models.Badge),
		accounts: make(map[id.Account]models.AccountState),
		listings: make(map[id.ListingID]models.Listing),
		escrows:  make(map[id.ProjectID]models.ProjectEscrow),
		balances: make(map[id.Account]decimal.Decimal),
	}
}

// Store holds committed ledger state.
type Store struct {
	writer  chan struct{}
	timeout time.Duration
	state   *state

	outboxMu  sync.Mutex
	outbox    []outboxEntry
	published uint64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		writer:  make(chan struct{}, 1),
		state:   newState(),
		timeout: defaultTxTimeout,
	}
}

var _ ports.StoreTx = (*Store)(nil)
var _ ports.Outbox = (*Store)(nil)

// RunInTx runs fn as the only writer. The staged writes are committed if fn
// returns nil and discarded otherwise.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, store ports.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.unlock()

	view := newTxView(s.state)
	if err := fn(ctx, view); err != nil {
		return err
	}
	s.commit(view)
	return nil
}

// lock takes the writer slot or gives up when ctx ends. Blocked writers
// queue on the channel and are admitted in arrival order.
func (s *Store) lock(ctx context.Context) error {
	select {
	case s.writer <- struct{}{}:
		return nil
	case <-ctx.Done():
		return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "transaction aborted: writer busy")
	}
}

func (s *Store) unlock() {
	<-s.writer
}

func (s *Store) commit(v *txView) {
	for k, b := range v.badges {
		s.state.badges[k] = b
	}
	for k, a := range v.accounts {
		s.state.accounts[k] = a
	}
	for k, l := range v.listings {
		s.state.listings[k] = l
	}
	for k, e := range v.escrows {
		s.state.escrows[k] = e
	}
	for k, b := range v.balances {
		s.state.balances[k] = b
	}
	s.state.lastBadgeID = v.lastBadgeID
	s.state.lastListingID = v.lastListingID

	if len(v.events) == 0 {
		return
	}
	s.outboxMu.Lock()
	defer s.outboxMu.Unlock()
	for _, ev := range v.events {
		s.state.lastEventSeq++
		ev.Seq = s.state.lastEventSeq
		s.outbox = append(s.outbox, outboxEntry{event: ev})
	}
}

// PendingEvents returns up to limit committed events not yet marked published.
func (s *Store) PendingEvents(_ context.Context, limit int) ([]models.Event, error) {
	s.outboxMu.Lock()
	defer s.outboxMu.Unlock()
	out := make([]models.Event, 0, min(limit, len(s.outbox)))
	for _, e := range s.outbox {
		if len(out) == limit {
			break
		}
		out = append(out, e.event)
	}
	return out, nil
}

// MarkPublished drops every outbox entry with Seq <= upTo.
func (s *Store) MarkPublished(_ context.Context, upTo uint64) error {
	s.outboxMu.Lock()
	defer s.outboxMu.Unlock()
	if upTo <= s.published {
		return nil
	}
	i := sort.Search(len(s.outbox), func(i int) bool { return s.outbox[i].event.Seq > upTo })
	s.outbox = append([]outboxEntry(nil), s.outbox[i:]...)
	s.published = upTo
	return nil
}

// txView overlays staged writes on the committed state.
type txView struct {
	base *state

	badges   map[id.BadgeID]models.Badge
	accounts map[id.Account]models.AccountState
	listings map[id.ListingID]models.Listing
	escrows  map[id.ProjectID]models.ProjectEscrow
	balances map[id.Account]decimal.Decimal
	events   []models.Event

	lastBadgeID   id.BadgeID
	lastListingID id.ListingID
}

func newTxView(base *state) *txView {
	return &txView{
		base:          base,
		badges:        make(map[id.BadgeID]models.Badge),
		accounts:      make(map[id.Account]models.AccountState),
		listings:      make(map[id.ListingID]models.Listing),
		escrows:       make(map[id.ProjectID]models.ProjectEscrow),
		balances:      make(map[id.Account]decimal.Decimal),
		lastBadgeID:   base.lastBadgeID,
		lastListingID: base.lastListingID,
	}
}

func (v *txView) NextBadgeID(_ context.Context) (id.BadgeID, error) {
	v.lastBadgeID++
	return v.lastBadgeID, nil
}

func (v *txView) FindBadge(_ context.Context, badgeID id.BadgeID) (*models.Badge, error) {
	if b, ok := v.badges[badgeID]; ok {
		return &b, nil
	}
	if b, ok := v.base.badges[badgeID]; ok {
		return &b, nil
	}
	return nil, sentinel.ErrNotFound
}

func (v *txView) SaveBadge(_ context.Context, badge *models.Badge) error {
	v.badges[badge.ID] = *badge
	return nil
}

func (v *txView) ListLiveBadgesByOwner(_ context.Context, owner id.Account) ([]*models.Badge, error) {
	var out []*models.Badge
	for k, b := range v.base.badges {
		if staged, ok := v.badges[k]; ok {
			b = staged
		}
		if b.Alive && b.Owner == owner {
			out = append(out, &b)
		}
	}
	for k, b := range v.badges {
		if _, seen := v.base.badges[k]; seen {
			continue
		}
		if b.Alive && b.Owner == owner {
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *txView) FindAccount(_ context.Context, account id.Account) (*models.AccountState, error) {
	if a, ok := v.accounts[account]; ok {
		return &a, nil
	}
	if a, ok := v.base.accounts[account]; ok {
		return &a, nil
	}
	return &models.AccountState{Account: account}, nil
}

func (v *txView) SaveAccount(_ context.Context, st *models.AccountState) error {
	v.accounts[st.Account] = *st
	return nil
}

func (v *txView) NextListingID(_ context.Context) (id.ListingID, error) {
	v.lastListingID++
	return v.lastListingID, nil
}

func (v *txView) FindListing(_ context.Context, listingID id.ListingID) (*models.Listing, error) {
	if l, ok := v.listings[listingID]; ok {
		return &l, nil
	}
	if l, ok := v.base.listings[listingID]; ok {
		return &l, nil
	}
	return nil, sentinel.ErrNotFound
}

func (v *txView) FindActiveListingByToken(_ context.Context, tokenID id.BadgeID) (*models.Listing, error) {
	for _, l := range v.listings {
		if l.Active && l.TokenID == tokenID {
			return &l, nil
		}
	}
	for k, l := range v.base.listings {
		if _, staged := v.listings[k]; staged {
			continue
		}
		if l.Active && l.TokenID == tokenID {
			return &l, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (v *txView) SaveListing(_ context.Context, listing *models.Listing) error {
	v.listings[listing.ID] = *listing
	return nil
}

func (v *txView) FindEscrow(_ context.Context, projectID id.ProjectID) (*models.ProjectEscrow, error) {
	if e, ok := v.escrows[projectID]; ok {
		return &e, nil
	}
	if e, ok := v.base.escrows[projectID]; ok {
		return &e, nil
	}
	return nil, sentinel.ErrNotFound
}

func (v *txView) SaveEscrow(_ context.Context, escrow *models.ProjectEscrow) error {
	v.escrows[escrow.ProjectID] = *escrow
	return nil
}

func (v *txView) FindBalance(_ context.Context, account id.Account) (decimal.Decimal, error) {
	if b, ok := v.balances[account]; ok {
		return b, nil
	}
	if b, ok := v.base.balances[account]; ok {
		return b, nil
	}
	return decimal.Zero, nil
}

func (v *txView) SaveBalance(_ context.Context, account id.Account, balance decimal.Decimal) error {
	v.balances[account] = balance
	return nil
}

func (v *txView) AppendEvent(_ context.Context, event models.Event) error {
	v.events = append(v.events, event)
	return nil
}
