// Package mocks provides gomock implementations of the narrow client
// interfaces used by the storage backends.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	client := mocks.NewMockRedisClient(ctrl)
//	client.EXPECT().Get(gomock.Any(), "jobscrape:run_record").Return(redis.NewStringResult("{}", nil))
package mocks

// Generate mock for RedisClient interface from internal/store package.
// This creates MockRedisClient with methods for all RedisClient interface methods:
// Get, Set, Copy
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=redis_client_mock.go github.com/jo-room/job-scrape/internal/store RedisClient
