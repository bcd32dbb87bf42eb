package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/AxelTei/Jeux-Olympiques/internal/backend"
	"github.com/AxelTei/Jeux-Olympiques/internal/domain"
	redisrepo "github.com/AxelTei/Jeux-Olympiques/internal/repository/redis"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) ListOffers(ctx context.Context) ([]domain.Offer, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]domain.Offer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) GetOffer(ctx context.Context, id int64) (*domain.Offer, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*domain.Offer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) CreateOffer(ctx context.Context, token string, in backend.OfferInput) error {
	args := m.Called(ctx, token, in)
	return args.Error(0)
}

func (m *mockAPI) UpdateOffer(ctx context.Context, token string, id int64, in backend.OfferInput) error {
	args := m.Called(ctx, token, id, in)
	return args.Error(0)
}

func (m *mockAPI) SellsByOffer(ctx context.Context, authHeader string) ([]domain.OfferSells, error) {
	args := m.Called(ctx, authHeader)
	if v := args.Get(0); v != nil {
		return v.([]domain.OfferSells), args.Error(1)
	}
	return nil, args.Error(1)
}

func fixtureOffers() []domain.Offer {
	return []domain.Offer{
		{ID: 1, Title: "Offre solo", Price: 49, NumberOfCustomers: 1},
		{ID: 2, Title: "Offre duo", Price: 89, NumberOfCustomers: 2},
	}
}

func newTestService(api API) (*Service, redismock.ClientMock) {
	db, rmock := redismock.NewClientMock()
	cache := redisrepo.New(db)
	return New(api, cache, nil, Config{OffersTTL: time.Minute, OfferTTL: time.Minute}), rmock
}

func TestListOffersColdCache(t *testing.T) {
	api := new(mockAPI)
	api.On("ListOffers", mock.Anything).Return(fixtureOffers(), nil).Once()

	s, rmock := newTestService(api)

	b, err := json.Marshal(fixtureOffers())
	require.NoError(t, err)

	// one read before singleflight, one inside it
	rmock.ExpectGet(redisrepo.KeyOffers()).RedisNil()
	rmock.ExpectGet(redisrepo.KeyOffers()).RedisNil()
	rmock.ExpectSet(redisrepo.KeyOffers(), string(b), time.Minute).SetVal("OK")

	offers, err := s.ListOffers(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, "Offre solo", offers[0].Title)
	api.AssertExpectations(t)
}

func TestListOffersWarmCache(t *testing.T) {
	api := new(mockAPI)
	s, rmock := newTestService(api)

	b, err := json.Marshal(fixtureOffers())
	require.NoError(t, err)
	rmock.ExpectGet(redisrepo.KeyOffers()).SetVal(string(b))

	offers, err := s.ListOffers(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 2)
	api.AssertNotCalled(t, "ListOffers", mock.Anything)
}

func TestGetOfferNotFound(t *testing.T) {
	api := new(mockAPI)
	api.On("GetOffer", mock.Anything, int64(9)).
		Return(nil, fmt.Errorf("backend.GetOffer: %w", backend.ErrNotFound))

	s, rmock := newTestService(api)
	rmock.ExpectGet(redisrepo.KeyOffer(9)).RedisNil()
	rmock.ExpectGet(redisrepo.KeyOffer(9)).RedisNil()

	_, err := s.GetOffer(context.Background(), 9)
	require.ErrorIs(t, err, ErrOfferNotFound)
}

func TestUpdateOfferInvalidatesCache(t *testing.T) {
	api := new(mockAPI)
	in := backend.OfferInput{Title: "Offre duo", Price: 99, NumberOfCustomers: 2}
	api.On("UpdateOffer", mock.Anything, "jwt-token", int64(2), in).Return(nil)

	s, rmock := newTestService(api)
	rmock.ExpectDel(redisrepo.KeyOffers(), redisrepo.KeyOffer(2)).SetVal(2)

	require.NoError(t, s.UpdateOffer(context.Background(), "jwt-token", 2, in))
	require.NoError(t, rmock.ExpectationsWereMet())
}

func TestSellsComputesRevenue(t *testing.T) {
	api := new(mockAPI)
	api.On("SellsByOffer", mock.Anything, "Bearer admin-token").Return([]domain.OfferSells{
		{ID: "s-1", OfferTitle: "Offre solo", OfferPrice: 49.9, Sells: 3},
		{ID: "s-2", OfferTitle: "Offre duo", OfferPrice: 89, Sells: 2},
	}, nil)

	s, _ := newTestService(api)
	report, err := s.Sells(context.Background(), "Bearer admin-token")
	require.NoError(t, err)

	require.Len(t, report.Rows, 2)
	assert.Equal(t, "149.7", report.Rows[0].Revenue.String())
	assert.Equal(t, "178", report.Rows[1].Revenue.String())
	assert.Equal(t, int64(5), report.TotalSells)
	assert.Equal(t, "327.7", report.TotalRevenue.String())
}
