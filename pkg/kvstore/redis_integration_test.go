//go:build integration

package kvstore_test

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/jeremyhahn/go-nhslogin/pkg/kvstore"
)

type RedisStoreSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	client    *redis.Client
	store     *kvstore.Redis
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	addr, err := container.ConnectionString(ctx)
	s.Require().NoError(err)

	opts, err := redis.ParseURL(addr)
	s.Require().NoError(err)

	s.client = redis.NewClient(opts)
	s.Require().NoError(s.client.Ping(ctx).Err())
	s.store = kvstore.NewRedis(s.client, kvstore.WithKeyPrefix("nhslogin:"))
}

func (s *RedisStoreSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

func (s *RedisStoreSuite) TestGetMissing() {
	_, err := s.store.Get(context.Background(), "server_url")
	s.ErrorIs(err, kvstore.ErrNotFound)
}

func (s *RedisStoreSuite) TestSetUsesPrefix() {
	ctx := context.Background()
	s.Require().NoError(s.store.Set(ctx, "server_url", []byte("https://relay.example")))

	raw, err := s.client.Get(ctx, "nhslogin:server_url").Result()
	s.Require().NoError(err)
	s.Equal("https://relay.example", raw)

	got, err := s.store.Get(ctx, "server_url")
	s.Require().NoError(err)
	s.Equal("https://relay.example", string(got))
}

func (s *RedisStoreSuite) TestSetManyWritesAllKeys() {
	ctx := context.Background()
	err := s.store.SetMany(ctx, map[string][]byte{
		"server_url": []byte("https://relay.example"),
		"env":        []byte(`{"client_id":"abc","url":"https://idp.example","name":"sandpit"}`),
	})
	s.Require().NoError(err)

	n, err := s.client.Exists(ctx, "nhslogin:server_url", "nhslogin:env").Result()
	s.Require().NoError(err)
	s.EqualValues(2, n)
}
