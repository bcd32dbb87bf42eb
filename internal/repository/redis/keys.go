package redis

import "fmt"

const ns = "jo:v1"

func KeySession(sessionID string) string {
	return fmt.Sprintf("%s:session:%s", ns, sessionID)
}

func KeyReceipt(userKey string) string {
	return fmt.Sprintf("%s:receipt:%s", ns, userKey)
}

func KeyOffers() string {
	return ns + ":offers"
}

func KeyOffer(offerID int64) string {
	return fmt.Sprintf("%s:offer:%d", ns, offerID)
}

func KeyIdemMint(bookingID string) string {
	return fmt.Sprintf("%s:idem:mint:%s", ns, bookingID)
}

func RateLimitPrefix(scope string) string {
	return fmt.Sprintf("%s:rl:%s", ns, scope)
}

func ChannelOffersChanged() string {
	return ns + ":offers:changed"
}
