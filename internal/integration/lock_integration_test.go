package integration

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/door-lock/internal/domain/lock"
	"github.com/oshokin/door-lock/internal/hardware"
	"github.com/oshokin/door-lock/internal/protocol"
	"github.com/oshokin/door-lock/internal/service/actuator"
	"github.com/oshokin/door-lock/internal/service/panel"
)

// TestScenario_SetupThenCheck configures a fresh control node from the panel and checks the credential.
func TestScenario_SetupThenCheck(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		node := startControlNode(t, freshRepo(t))
		defer node.stop(t)

		ctx := context.Background()

		configured, err := node.client.Status(ctx)
		require.NoError(t, err)
		require.False(t, configured)

		controller := panel.NewController(node.client, devices(newKeypad("13579", "13579")))
		require.NoError(t, controller.Start(ctx))

		response, err := node.client.CheckCredential(ctx, "13579")
		require.NoError(t, err)
		require.Equal(t, protocol.ResponseOK, response)

		response, err = node.client.CheckCredential(ctx, "97531")
		require.NoError(t, err)
		require.Equal(t, protocol.ResponseFail, response)

		configured, err = node.client.Status(ctx)
		require.NoError(t, err)
		require.True(t, configured)

		require.Equal(t, []string{
			"STS", "STS", "SET:13579", "CHK:13579", "CHK:97531", "STS",
		}, node.tap.texts())
	})
}

// TestScenario_UnlockHoldsForStoredTimeout runs the full cycle with the stored hold and ignores a wrong credential.
func TestScenario_UnlockHoldsForStoredTimeout(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		node := startControlNode(t, configuredRepo(t, "24680", 15))
		defer node.stop(t)

		ctx := context.Background()

		response, err := node.client.OpenDoor(ctx, "24680")
		require.NoError(t, err)
		require.Equal(t, protocol.ResponseOK, response)

		time.Sleep(20 * time.Second)

		moves := node.motor.recorded()
		require.Len(t, moves, 4)
		require.Equal(t, []hardware.Direction{
			hardware.DirectionOpen, hardware.DirectionStop, hardware.DirectionClose, hardware.DirectionStop,
		}, []hardware.Direction{moves[0].direction, moves[1].direction, moves[2].direction, moves[3].direction})
		require.Equal(t, actuator.DefaultSettleInterval, moves[1].at.Sub(moves[0].at))
		require.Equal(t, 15*time.Second, moves[2].at.Sub(moves[1].at))
		require.Equal(t, actuator.DefaultSettleInterval, moves[3].at.Sub(moves[2].at))

		response, err = node.client.OpenDoor(ctx, "00000")
		require.NoError(t, err)
		require.Equal(t, protocol.ResponseFail, response)

		time.Sleep(time.Minute)
		require.Len(t, node.motor.recorded(), 4)
	})
}

// TestScenario_TimeoutRange stores only values within [5, 30] and keeps the previous one otherwise.
func TestScenario_TimeoutRange(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		node := startControlNode(t, configuredRepo(t, "24680", 12))
		defer node.stop(t)

		ctx := context.Background()

		for _, payload := range []string{"4", "31", "abc"} {
			response, err := node.client.Call(ctx, protocol.Command{Verb: protocol.VerbSetTimeout, Payload: payload})
			require.NoError(t, err)
			require.Equal(t, protocol.ResponseFail, response, payload)
		}

		stored, err := node.repo.ReadTimeout(ctx)
		require.NoError(t, err)
		require.Equal(t, lock.Timeout(12), stored)

		response, err := node.client.SetTimeout(ctx, 30)
		require.NoError(t, err)
		require.Equal(t, protocol.ResponseOK, response)

		stored, err = node.repo.ReadTimeout(ctx)
		require.NoError(t, err)
		require.Equal(t, lock.MaxTimeout, stored)
	})
}

// TestScenario_ThreeRejectionsSoundOneAlarm drives the panel into lockout and checks the wire.
func TestScenario_ThreeRejectionsSoundOneAlarm(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		node := startControlNode(t, configuredRepo(t, "24680", 10))
		defer node.stop(t)

		keys := newKeypad("24680", "A", "00000", "00000", "00000", "A", "24680")
		controller := panel.NewController(node.client, devices(keys))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)

		go func() {
			done <- controller.Run(ctx)
		}()

		time.Sleep(2 * time.Minute)
		cancel()
		require.True(t, panel.IsShutdown(<-done))

		lines := node.tap.seen()
		texts := node.tap.texts()
		require.Equal(t, []string{
			"STS", "CHK:24680",
			"PWD:00000", "PWD:00000", "PWD:00000", "ALM",
			"PWD:24680",
		}, texts)

		alarm, retry := lines[5], lines[6]
		require.GreaterOrEqual(t, retry.at.Sub(alarm.at), panel.DefaultCooldown)
		require.Equal(t, actuator.AlarmPulses, node.buzzer.count())

		moves := node.motor.recorded()
		require.NotEmpty(t, moves)
		require.True(t, moves[0].at.After(retry.at) || moves[0].at.Equal(retry.at))
	})
}

// TestScenario_OpenDuringHoldIsNotReplayed never replays a PWD sent while the door is open.
func TestScenario_OpenDuringHoldIsNotReplayed(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		node := startControlNode(t, configuredRepo(t, "24680", 30))
		defer node.stop(t)

		keys := newKeypad("24680", "A", "24680", "A", "24680")
		controller := panel.NewController(node.client, devices(keys))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)

		go func() {
			done <- controller.Run(ctx)
		}()

		time.Sleep(2 * time.Minute)
		cancel()
		require.True(t, panel.IsShutdown(<-done))

		require.Len(t, node.motor.recorded(), 4)
		require.Equal(t, []string{"STS", "CHK:24680", "PWD:24680"}, node.tap.texts())

		configured, err := node.client.Status(context.Background())
		require.NoError(t, err)
		require.True(t, configured)
		require.Len(t, node.motor.recorded(), 4)
	})
}
