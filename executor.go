package pixelpipe

import (
	"context"
	"fmt"
	"time"

	"github.com/gogpu/wgpu/hal"
)

// defaultDeviceWaitTimeout is the duration passed to hal.Device.Wait when
// the caller hasn't set one via WithDeviceWaitTimeout. Device polling is
// meant to wait unbounded for completed work; the concrete hal.Device.Wait
// signature takes a timeout argument rather than a context, so this stands
// in for "forever" without requiring every caller to pick a value. Callers
// wanting a real ceiling (and the fatal ErrDevicePoll that crossing it
// produces) set their own, smaller timeout instead.
const defaultDeviceWaitTimeout = 365 * 24 * time.Hour

// execute runs plan's steps in declaration order against initialState,
// threading parallelPath into every cache key a step derives so that
// sibling branches of nested Parallel steps never collide. It returns the
// final state and the command buffers recorded but not yet submitted.
func (e *Engine) execute(ctx context.Context, plan Plan, initialState ProcessingState, parallelPath string) (ProcessingState, []hal.CommandBuffer, error) {
	state := initialState
	var pending []hal.CommandBuffer

	for i, step := range plan.Steps() {
		stepIndex := uint32(i)

		switch step.Kind {
		case StepWgsl:
			newState, cmd, err := e.handleWgslStep(state, step, stepIndex, parallelPath)
			if err != nil {
				return nil, nil, err
			}
			state = newState
			pending = append(pending, cmd)

		case StepParallel:
			newState, cmds, err := e.handleParallelStep(ctx, &pending, state, step, stepIndex, parallelPath)
			if err != nil {
				return nil, nil, err
			}
			state = newState
			pending = append(pending, cmds...)

		case StepCpu:
			if err := e.flush(&pending); err != nil {
				return nil, nil, err
			}
			newState, err := e.handleCpuStep(state, step, stepIndex, parallelPath)
			if err != nil {
				return nil, nil, err
			}
			state = newState

		default:
			return nil, nil, fmt.Errorf("pixelpipe: plan step %d has unknown kind %d", i, step.Kind)
		}
	}

	return state, pending, nil
}

// flush submits every pending command buffer as one batch and blocks
// until the device signals completion, then clears pending. A CPU step's
// readback must observe prior GPU writes, and a Parallel step whose
// branches contain CPU work must not race outstanding writes either, so
// both call this first.
func (e *Engine) flush(pending *[]hal.CommandBuffer) error {
	if len(*pending) == 0 {
		return nil
	}

	e.submitMu.Lock()
	defer e.submitMu.Unlock()

	fence, err := e.device.CreateFence()
	if err != nil {
		return fmt.Errorf("pixelpipe: create fence: %w", err)
	}
	defer e.device.DestroyFence(fence)

	if err := e.queue.Submit(*pending, fence, 1); err != nil {
		return fmt.Errorf("pixelpipe: submit command buffers: %w", err)
	}
	e.submitCount.Add(1)

	ok, err := e.device.Wait(fence, 1, e.deviceWaitTimeout)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDevicePoll, err)
	}
	if !ok {
		return fmt.Errorf("%w: timed out after %s", ErrDevicePoll, e.deviceWaitTimeout)
	}

	*pending = nil
	return nil
}

// Generate executes plan from an empty initial state, submits whatever
// the final step left pending, and hands the single resulting output to
// post-processing, returning packed RGBA8 bytes.
func (e *Engine) Generate(ctx context.Context, plan Plan) ([]byte, error) {
	state, pending, err := e.execute(ctx, plan, nil, "")
	if err != nil {
		return nil, err
	}
	if err := e.flush(&pending); err != nil {
		return nil, err
	}
	if len(state) != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrFinalStateArity, len(state))
	}
	return e.postProcess(state[0])
}
