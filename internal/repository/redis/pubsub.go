package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// OffersPubSub fans catalog changes out to every storefront instance
// so each one can drop its cached offer list.
type OffersPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewOffersPubSub(rdb *redis.Client) *OffersPubSub {
	return &OffersPubSub{
		rdb:     rdb,
		channel: ChannelOffersChanged(),
	}
}

type offersChangedMsg struct {
	Type    string `json:"type"`
	OfferID int64  `json:"offer_id"`
	TsUnix  int64  `json:"ts_unix"`
}

func (p *OffersPubSub) PublishOffersChanged(ctx context.Context, offerID int64) error {
	msg := offersChangedMsg{
		Type:    "offers_changed",
		OfferID: offerID,
		TsUnix:  time.Now().Unix(),
	}

	b, _ := json.Marshal(msg)

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

func (p *OffersPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, offerID int64)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev offersChangedMsg
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil {
				handler(ctx, ev.OfferID)
			}
		}
	}
}
