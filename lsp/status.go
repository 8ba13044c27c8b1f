package lsp

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/thesimplekid/cashu-lsp/db"
	"github.com/thesimplekid/cashu-lsp/lnclient"
	"github.com/thesimplekid/cashu-lsp/logger"
)

// ChannelLister is the capability the status resolver needs from the
// Lightning node: the live channel list.
type ChannelLister interface {
	ListChannels(ctx context.Context) ([]lnclient.Channel, error)
}

type QuoteStatus struct {
	Id    string `json:"id"`
	State string `json:"state"`
	// ChannelId is the externally-visible channel id if the node currently
	// has a live channel matching the quote's recorded handle, null
	// otherwise (not yet confirmed, or closed).
	ChannelId *string `json:"channel_id"`
}

// StatusResolver answers lifecycle queries. The external channel id is a
// read-time join against the node's channel list, never persisted, so the
// answer always reflects current node state.
type StatusResolver struct {
	store *db.QuoteStore
	node  ChannelLister
}

func NewStatusResolver(store *db.QuoteStore, node ChannelLister) *StatusResolver {
	return &StatusResolver{
		store: store,
		node:  node,
	}
}

func (r *StatusResolver) Resolve(ctx context.Context, rawId string) (*QuoteStatus, error) {
	id, err := uuid.Parse(rawId)
	if err != nil {
		logger.Logger.Warn().Str("id", rawId).Msg("Invalid quote id format")
		return nil, &InvalidIdError{Id: rawId}
	}

	quote, err := r.store.Get(id.String())
	if err != nil {
		if errors.Is(err, db.ErrQuoteNotFound) {
			return nil, &QuoteNotFoundError{Id: id.String()}
		}
		return nil, &DatabaseError{Err: err}
	}

	var channelId *string
	if quote.ChannelId != nil {
		channels, err := r.node.ListChannels(ctx)
		if err != nil {
			return nil, &InternalError{Err: err}
		}

		for _, channel := range channels {
			if channel.ChannelPoint == *quote.ChannelId {
				channelId = &channel.Id
				break
			}
		}
		if channelId == nil {
			logger.Logger.Info().
				Str("quote_id", quote.ID).
				Str("channel_point", *quote.ChannelId).
				Msg("No live channel for recorded handle")
		}
	}

	return &QuoteStatus{
		Id:        quote.ID,
		State:     quote.State,
		ChannelId: channelId,
	}, nil
}
