package pixelpipe

import (
	"context"
	"strconv"
	"sync"

	"github.com/gogpu/wgpu/hal"
)

// handleParallelStep fans out to step's sub-plans concurrently, each
// seeded with the same incoming state, and fans their final states and
// encoders back in preserving sub-plan declaration order. If any sub-plan
// contains a top-level CPU step, accumulated encoders are flushed first:
// a CPU step inside a branch will itself need to read completed GPU work.
func (e *Engine) handleParallelStep(ctx context.Context, pending *[]hal.CommandBuffer, state ProcessingState, step PlanStep, stepIndex uint32, parallelPath string) (ProcessingState, []hal.CommandBuffer, error) {
	if anySubPlanHasCpuStep(step.SubPlans) {
		if err := e.flush(pending); err != nil {
			return nil, nil, err
		}
	}

	n := len(step.SubPlans)
	results := make([]ProcessingState, n)
	encoders := make([][]hal.CommandBuffer, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i, sub := range step.SubPlans {
		go func(i int, sub Plan) {
			defer wg.Done()
			path := childParallelPath(parallelPath, i)
			st, enc, err := e.execute(ctx, sub, state, path)
			results[i], encoders[i], errs[i] = st, enc, err
		}(i, sub)
	}
	wg.Wait()

	// First error by sub-plan declaration order, not completion order.
	for _, err := range errs {
		if err != nil {
			return nil, nil, err
		}
	}

	var combined ProcessingState
	var combinedEncoders []hal.CommandBuffer
	for i := 0; i < n; i++ {
		combined = append(combined, results[i]...)
		combinedEncoders = append(combinedEncoders, encoders[i]...)
	}

	Logger().Debug("pixelpipe: parallel step fanned in", "branches", n, "parallel_path", parallelPath)
	return combined, combinedEncoders, nil
}

// anySubPlanHasCpuStep checks only the top level of each sub-plan,
// matching the reference design's shallow detection (deeper detection
// through nested Parallel steps is permitted but not required).
func anySubPlanHasCpuStep(subPlans []Plan) bool {
	for _, p := range subPlans {
		for _, s := range p.Steps() {
			if s.Kind == StepCpu {
				return true
			}
		}
	}
	return false
}

func childParallelPath(parent string, index int) string {
	if parent == "" {
		return strconv.Itoa(index)
	}
	return parent + "." + strconv.Itoa(index)
}
