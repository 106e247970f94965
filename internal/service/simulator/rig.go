package simulator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/door-lock/internal/logger"
	"github.com/oshokin/door-lock/internal/repository/store"
	"github.com/oshokin/door-lock/internal/service/common"
	"github.com/oshokin/door-lock/internal/service/control"
	"github.com/oshokin/door-lock/internal/service/panel"
	"github.com/oshokin/door-lock/internal/transport"
)

// Rig is a control node and a panel wired back to back.
type Rig struct {
	engine      *control.Engine
	controller  *panel.Controller
	panelLink   *transport.Link
	controlLink *transport.Link
}

// RigOptions tunes the two nodes.
type RigOptions struct {
	// ResponseTimeout bounds the panel's wait for an answer.
	ResponseTimeout time.Duration
	// PanelOptions are passed to the panel controller.
	PanelOptions []panel.Option
}

// NewRig wires a control node on repo and sequencer to a panel on devices.
// repo must already be initialised.
func NewRig(
	repo store.Repository,
	sequencer control.Sequencer,
	devices panel.Devices,
	opts *RigOptions,
) *Rig {
	if opts == nil {
		opts = new(RigOptions)
	}

	panelLink, controlLink := transport.Pipe()
	client := common.NewClient(panelLink, common.WithCallTimeout(opts.ResponseTimeout))

	return &Rig{
		engine:      control.NewEngine(controlLink, repo, sequencer),
		controller:  panel.NewController(client, devices, opts.PanelOptions...),
		panelLink:   panelLink,
		controlLink: controlLink,
	}
}

// Controller exposes the panel state machine.
func (r *Rig) Controller() *panel.Controller {
	return r.controller
}

// Run serves the control node in the background and runs the panel until the context ends.
// Both links are closed on return.
func (r *Rig) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	served := make(chan error, 1)

	go func() {
		served <- r.engine.Serve(logger.WithName(ctx, "control"))
	}()

	panelErr := r.controller.Run(logger.WithName(ctx, "panel"))

	cancel()

	closeErr := errors.Join(r.panelLink.Close(), r.controlLink.Close())
	serveErr := <-served

	if panelErr != nil && !panel.IsShutdown(panelErr) {
		return fmt.Errorf("panel: %w", panelErr)
	}

	if serveErr != nil {
		return fmt.Errorf("control node: %w", serveErr)
	}

	if closeErr != nil {
		logger.WarnKV(ctx, "Closing links failed", "error", closeErr)
	}

	return nil
}
