package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotifier_SubscribeAndCancel(t *testing.T) {
	n := NewNotifier()

	var a, b int
	cancelA := n.Subscribe(func(Change) { a++ })
	n.Subscribe(func(Change) { b++ })

	n.Publish(Change{Kind: KindLaunch})
	cancelA()
	cancelA()
	n.Publish(Change{Kind: KindRating})

	require.Equal(t, 1, a)
	require.Equal(t, 2, b)
}

func TestNotifier_NilPublish(t *testing.T) {
	var n *Notifier
	require.NotPanics(t, func() { n.Publish(Change{Kind: KindSession}) })
}

func TestValidRating(t *testing.T) {
	require.True(t, ValidRating(0))
	require.True(t, ValidRating(5))
	require.True(t, ValidRating(2.5))
	require.False(t, ValidRating(-1))
	require.False(t, ValidRating(6))
}
