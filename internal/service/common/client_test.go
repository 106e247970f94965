//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/door-lock/internal/protocol"
	"github.com/oshokin/door-lock/internal/transport"
)

// scriptedNode reads lines from its link and answers with whatever respond returns.
type scriptedNode struct {
	link    *transport.Link
	respond func(line string) string

	mu    sync.Mutex
	lines []string
}

func (n *scriptedNode) serve() {
	var buf protocol.LineBuffer

	for {
		b, err := n.link.ReceiveByte(context.Background())
		if err != nil {
			return
		}

		line, result := buf.Push(b)
		if result != protocol.PushComplete {
			continue
		}

		n.mu.Lock()
		n.lines = append(n.lines, string(line))
		n.mu.Unlock()

		if answer := n.respond(string(line)); answer != "" {
			_ = n.link.SendString(answer)
		}
	}
}

func (n *scriptedNode) received() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]string(nil), n.lines...)
}

func startNode(t *testing.T, respond func(line string) string, opts ...Option) (*Client, *scriptedNode) {
	t.Helper()

	panel, node := transport.Pipe()

	n := &scriptedNode{link: node, respond: respond}
	go n.serve()

	client := NewClient(panel, opts...)

	t.Cleanup(func() {
		_ = client.Close()
		_ = node.Close()
	})

	return client, n
}

// TestDial_ValidatesPort verifies that Dial rejects empty port names.
func TestDial_ValidatesPort(t *testing.T) {
	t.Parallel()

	c, err := Dial(context.Background(), "", 9600)
	require.Error(t, err)
	require.Nil(t, c)
}

// TestClient_CallSkipsNoise returns the first '0' or '1' and ignores other bytes.
func TestClient_CallSkipsNoise(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		client, node := startNode(t, func(string) string { return "?\x00x1" })
		defer func() {
			_ = client.Close()
			_ = node.link.Close()
		}()

		response, err := client.CheckCredential(context.Background(), "24680")
		require.NoError(t, err)
		require.Equal(t, protocol.ResponseOK, response)
		require.Equal(t, []string{"CHK:24680"}, node.received())
	})
}

// TestClient_CallTimesOut yields NoResponse after the call timeout.
func TestClient_CallTimesOut(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		client, node := startNode(t, func(string) string { return "" }, WithCallTimeout(3*time.Second))
		defer func() {
			_ = client.Close()
			_ = node.link.Close()
		}()

		start := time.Now()

		response, err := client.OpenDoor(context.Background(), "00000")
		require.NoError(t, err)
		require.Equal(t, protocol.NoResponse, response)
		require.Equal(t, 3*time.Second, time.Since(start))
	})
}

// TestClient_CallCanceled reports cancellation as an error.
func TestClient_CallCanceled(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		client, node := startNode(t, func(string) string { return "" })
		defer func() {
			_ = client.Close()
			_ = node.link.Close()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		_, err := client.SetTimeout(ctx, 15)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

// TestClient_FlushesStaleAnswer does not attribute a late byte to the next command.
func TestClient_FlushesStaleAnswer(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		client, node := startNode(t, func(string) string { return "0" })
		defer func() {
			_ = client.Close()
			_ = node.link.Close()
		}()

		require.NoError(t, node.link.SendByte('1'))
		synctest.Wait()

		response, err := client.SetCredential(context.Background(), "13579")
		require.NoError(t, err)
		require.Equal(t, protocol.ResponseFail, response)
	})
}

// TestClient_StatusRetries resends STS until the control node answers.
func TestClient_StatusRetries(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		var calls int

		client, node := startNode(t, func(string) string {
			calls++
			if calls < 3 {
				return ""
			}

			return "1"
		})
		defer func() {
			_ = client.Close()
			_ = node.link.Close()
		}()

		start := time.Now()

		configured, err := client.Status(context.Background())
		require.NoError(t, err)
		require.True(t, configured)
		require.Equal(t, 2*(DefaultStatusWindow+DefaultStatusGap), time.Since(start))
		require.Len(t, node.received(), 3)
	})
}

// TestClient_StatusUnanswered gives up after the configured attempts.
func TestClient_StatusUnanswered(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		client, node := startNode(t, func(string) string { return "" },
			WithStatusRetry(2, 50*time.Millisecond, 0))
		defer func() {
			_ = client.Close()
			_ = node.link.Close()
		}()

		_, err := client.Status(context.Background())
		require.ErrorIs(t, err, ErrNoResponse)
		require.Equal(t, []string{"STS", "STS"}, node.received())
	})
}

// TestClient_SoundAlarmDoesNotWait sends ALM and returns at once.
func TestClient_SoundAlarmDoesNotWait(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		client, node := startNode(t, func(string) string { return "" })
		defer func() {
			_ = client.Close()
			_ = node.link.Close()
		}()

		start := time.Now()

		require.NoError(t, client.SoundAlarm(context.Background()))
		require.Zero(t, time.Since(start))

		synctest.Wait()
		require.Equal(t, []string{"ALM"}, node.received())
	})
}
