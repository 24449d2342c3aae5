//go:build integration

package bucket

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"condo/pkg/testutil/containers"
)

func TestRedisBucketStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)

	suite.Run(t, &BucketContractSuite{
		newStore: func(clock *fakeClock) Bucket {
			return NewRedisBucketStore(rc.Client, WithRedisClock(clock.Now))
		},
	})
}
