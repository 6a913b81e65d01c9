package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type RedisTestSuite struct {
	suite.Suite
	ctx       context.Context
	container testcontainers.Container
	client    *Client
}

func (s *RedisTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	s.Require().NoError(err)
	s.container = container

	addr, err := container.Endpoint(s.ctx, "")
	s.Require().NoError(err)

	client, err := NewClient(addr, "", 0)
	s.Require().NoError(err)
	s.client = client
}

func (s *RedisTestSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(s.ctx))
	}
}

func (s *RedisTestSuite) SetupTest() {
	s.Require().NoError(s.client.rdb.FlushDB(s.ctx).Err())
}

func (s *RedisTestSuite) TestLockIsExclusive() {
	token, ok, err := s.client.AcquireLock(s.ctx, "hitpay:webhook:42", time.Minute)
	s.Require().NoError(err)
	s.True(ok)
	s.NotEmpty(token)

	_, ok, err = s.client.AcquireLock(s.ctx, "hitpay:webhook:42", time.Minute)
	s.Require().NoError(err)
	s.False(ok)

	_, ok, err = s.client.AcquireLock(s.ctx, "hitpay:webhook:43", time.Minute)
	s.Require().NoError(err)
	s.True(ok, "locks are per key")
}

func (s *RedisTestSuite) TestReleaseRequiresOwnerToken() {
	token, ok, err := s.client.AcquireLock(s.ctx, "hitpay:webhook:42", time.Minute)
	s.Require().NoError(err)
	s.Require().True(ok)

	s.Require().NoError(s.client.ReleaseLock(s.ctx, "hitpay:webhook:42", "someone-else"))

	held, err := s.client.rdb.Get(s.ctx, lockKeyFor("hitpay:webhook:42")).Result()
	s.Require().NoError(err)
	s.Equal(token, held, "a non-owner must not delete the lock")

	_, ok, err = s.client.AcquireLock(s.ctx, "hitpay:webhook:42", time.Minute)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.client.ReleaseLock(s.ctx, "hitpay:webhook:42", token))

	_, ok, err = s.client.AcquireLock(s.ctx, "hitpay:webhook:42", time.Minute)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *RedisTestSuite) TestLockExpires() {
	_, ok, err := s.client.AcquireLock(s.ctx, "hitpay:webhook:42", time.Minute)
	s.Require().NoError(err)
	s.Require().True(ok)

	ttl, err := s.client.rdb.TTL(s.ctx, lockKeyFor("hitpay:webhook:42")).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)
}

func (s *RedisTestSuite) TestClearCart() {
	s.Require().NoError(s.client.rdb.Set(s.ctx, "cart:sess-1", "items", 0).Err())
	s.Require().NoError(s.client.rdb.Set(s.ctx, "cart:sess-2", "items", 0).Err())

	s.Require().NoError(s.client.ClearCart(s.ctx, "sess-1"))

	n, err := s.client.rdb.Exists(s.ctx, "cart:sess-1").Result()
	s.Require().NoError(err)
	s.Equal(int64(0), n)

	n, err = s.client.rdb.Exists(s.ctx, "cart:sess-2").Result()
	s.Require().NoError(err)
	s.Equal(int64(1), n, "other sessions keep their cart")

	s.NoError(s.client.ClearCart(s.ctx, "missing-session"))
}

func (s *RedisTestSuite) TestStatusCache() {
	status, err := s.client.CachedStatus(s.ctx, 42)
	s.Require().NoError(err, "a miss is not an error")
	s.Equal("", status)

	s.Require().NoError(s.client.CacheStatus(s.ctx, 42, "completed", time.Hour))

	status, err = s.client.CachedStatus(s.ctx, 42)
	s.Require().NoError(err)
	s.Equal("completed", status)

	ttl, err := s.client.rdb.TTL(s.ctx, statusKey(42)).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))

	status, err = s.client.CachedStatus(s.ctx, 43)
	s.Require().NoError(err)
	s.Equal("", status)
}

func TestRedisTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Integration test - requires docker")
	}
	suite.Run(t, new(RedisTestSuite))
}
