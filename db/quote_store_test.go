package db

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	gormDB, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)

	err = gormDB.AutoMigrate(&Quote{})
	require.NoError(t, err)

	return gormDB
}

func newTestQuote() *Quote {
	push := uint64(10_000)
	return &Quote{
		ID:                  uuid.New().String(),
		ChannelSizeSats:     1_000_000,
		PushAmountSats:      &push,
		ExpectedPaymentSats: 1_011_000,
		NodePubkey:          "02a1633cafcc01ebfb6d78e39f687a1f0995c62fc95f51ead10a02ee0be551b5dc",
		Addr:                "127.0.0.1:9735",
		State:               QUOTE_STATE_UNPAID,
	}
}

func TestQuoteStorePutGetRoundTrip(t *testing.T) {
	store := NewQuoteStore(setupTestDB(t))

	quote := newTestQuote()
	require.NoError(t, store.Put(quote))

	got, err := store.Get(quote.ID)
	require.NoError(t, err)
	require.Equal(t, quote.ID, got.ID)
	require.Equal(t, quote.ChannelSizeSats, got.ChannelSizeSats)
	require.Equal(t, quote.PushAmountSats, got.PushAmountSats)
	require.Equal(t, quote.ExpectedPaymentSats, got.ExpectedPaymentSats)
	require.Equal(t, quote.NodePubkey, got.NodePubkey)
	require.Equal(t, quote.Addr, got.Addr)
	require.Equal(t, QUOTE_STATE_UNPAID, got.State)
	require.Nil(t, got.ChannelId)
}

func TestQuoteStorePutOverwrites(t *testing.T) {
	store := NewQuoteStore(setupTestDB(t))

	quote := newTestQuote()
	require.NoError(t, store.Put(quote))

	quote.State = QUOTE_STATE_PAID
	channelId := "abc:0"
	quote.ChannelId = &channelId
	require.NoError(t, store.Put(quote))

	got, err := store.Get(quote.ID)
	require.NoError(t, err)
	require.Equal(t, QUOTE_STATE_PAID, got.State)
	require.Equal(t, &channelId, got.ChannelId)
}

func TestQuoteStoreGetNotFound(t *testing.T) {
	store := NewQuoteStore(setupTestDB(t))

	_, err := store.Get(uuid.New().String())
	require.ErrorIs(t, err, ErrQuoteNotFound)
}

func TestQuoteStoreSetState(t *testing.T) {
	store := NewQuoteStore(setupTestDB(t))

	quote := newTestQuote()
	require.NoError(t, store.Put(quote))

	updated, err := store.SetState(quote.ID, QUOTE_STATE_CHANNEL_PENDING)
	require.NoError(t, err)
	require.Equal(t, QUOTE_STATE_CHANNEL_PENDING, updated.State)

	_, err = store.SetState(uuid.New().String(), QUOTE_STATE_PAID)
	require.ErrorIs(t, err, ErrQuoteNotFound)
}

func TestQuoteStoreTransition(t *testing.T) {
	store := NewQuoteStore(setupTestDB(t))

	quote := newTestQuote()
	require.NoError(t, store.Put(quote))

	updated, err := store.Transition(quote.ID, QUOTE_STATE_UNPAID, QUOTE_STATE_CHANNEL_PENDING)
	require.NoError(t, err)
	require.Equal(t, QUOTE_STATE_CHANNEL_PENDING, updated.State)

	// state already moved on, the same transition now conflicts
	_, err = store.Transition(quote.ID, QUOTE_STATE_UNPAID, QUOTE_STATE_CHANNEL_PENDING)
	require.ErrorIs(t, err, ErrQuoteStateConflict)

	_, err = store.Transition(uuid.New().String(), QUOTE_STATE_UNPAID, QUOTE_STATE_CHANNEL_PENDING)
	require.ErrorIs(t, err, ErrQuoteNotFound)
}

func TestQuoteStoreMarkChannelOpened(t *testing.T) {
	store := NewQuoteStore(setupTestDB(t))

	quote := newTestQuote()
	require.NoError(t, store.Put(quote))

	_, err := store.Transition(quote.ID, QUOTE_STATE_UNPAID, QUOTE_STATE_CHANNEL_PENDING)
	require.NoError(t, err)

	updated, err := store.MarkChannelOpened(quote.ID, "deadbeef:1")
	require.NoError(t, err)
	require.Equal(t, QUOTE_STATE_CHANNEL_OPEN, updated.State)
	require.NotNil(t, updated.ChannelId)
	require.Equal(t, "deadbeef:1", *updated.ChannelId)

	// only a ChannelPending quote can be finalized
	_, err = store.MarkChannelOpened(quote.ID, "deadbeef:2")
	require.ErrorIs(t, err, ErrQuoteStateConflict)
}

func TestQuoteStoreListByState(t *testing.T) {
	store := NewQuoteStore(setupTestDB(t))

	unpaid := newTestQuote()
	require.NoError(t, store.Put(unpaid))

	paid := newTestQuote()
	paid.State = QUOTE_STATE_PAID
	require.NoError(t, store.Put(paid))

	quotes, err := store.ListByState(QUOTE_STATE_PAID)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	require.Equal(t, paid.ID, quotes[0].ID)

	quotes, err = store.ListByState(QUOTE_STATE_CHANNEL_OPEN)
	require.NoError(t, err)
	require.Empty(t, quotes)
}
