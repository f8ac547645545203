package pubsub

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestResourceName(t *testing.T) {
	assert.Equal(t, "projects/p1/topics/tix-domain-events", resourceName("p1", "topics", "tix-domain-events"))
	assert.Equal(t, "projects/other/topics/x", resourceName("p1", "topics", "projects/other/topics/x"))
	assert.Equal(t, "projects/p1/subscriptions/sub", resourceName("p1", "subscriptions", " sub "))
	assert.Empty(t, resourceName("", "topics", "x"))
	assert.Empty(t, resourceName("p1", "topics", ""))
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(status.Error(codes.NotFound, "topic deleted")))
	assert.True(t, IsPermanent(status.Error(codes.PermissionDenied, "iam")))
	assert.False(t, IsPermanent(status.Error(codes.Unavailable, "try again")))
	assert.False(t, IsPermanent(status.Error(codes.DeadlineExceeded, "slow")))
	assert.False(t, IsPermanent(errors.New("plain")))
	assert.False(t, IsPermanent(nil))
}

func TestDescribeNotFound(t *testing.T) {
	err := describe("topic", "tix-domain-events", status.Error(codes.NotFound, "gone"))
	assert.EqualError(t, err, `topic "tix-domain-events" does not exist`)

	cause := status.Error(codes.Unavailable, "down")
	err = describe("subscription", "sub", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, fmt.Sprintf("checking subscription %q: %v", "sub", cause), err.Error())
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("x"))
	assert.Nil(t, c.Subscription("x"))
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}
