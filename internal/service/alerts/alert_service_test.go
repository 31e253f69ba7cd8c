package alerts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	to, body string
	err      error
}

func (f *fakeClient) SendText(_ context.Context, to, body string) ([]string, error) {
	f.to, f.body = to, body
	if f.err != nil {
		return nil, f.err
	}
	return []string{"wamid.1"}, nil
}

func TestWhatsAppNotifier(t *testing.T) {
	c := &fakeClient{}
	n := NewWhatsAppNotifier(c, "628123", nil)

	require.NoError(t, n.Notify(context.Background(), "stok menipis"))
	assert.Equal(t, "628123", c.to)
	assert.Equal(t, "stok menipis", c.body)

	c.err = errors.New("unreachable")
	err := n.Notify(context.Background(), "x")
	assert.ErrorContains(t, err, "unreachable")
}

func TestLogNotifierNeverFails(t *testing.T) {
	assert.NoError(t, NewLogNotifier(nil).Notify(context.Background(), "x"))
}
