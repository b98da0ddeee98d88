package pixelpipe

// StepKind tags which variant a PlanStep or StepOutput carries. Modeled as
// a plain enum-plus-struct tagged sum rather than an interface hierarchy,
// so handlers dispatch with a single switch instead of a type assertion
// per call.
type StepKind int

const (
	// StepWgsl runs a single compute shader, serially.
	StepWgsl StepKind = iota
	// StepParallel fans out to independent sub-plans and fans their
	// results back in, preserving declaration order.
	StepParallel
	// StepCpu runs a user-supplied CPU function.
	StepCpu
)

// PlanStep is one entry in a Plan. Only the fields relevant to Kind are
// populated; the rest are zero value.
type PlanStep struct {
	Kind StepKind

	// StepWgsl fields.
	Shader *ShaderModule
	Params []byte // nil if this step has no params

	// StepParallel fields.
	SubPlans []Plan

	// StepCpu fields.
	Func *CpuFunction

	// Shared by StepWgsl and StepCpu.
	OutWidth, OutHeight uint32
}

// Plan is an immutable, ordered sequence of PlanSteps. Builder operations
// (AddWgsl, AddParallel, AddCpu) never mutate the receiver: each allocates
// a fresh backing slice, copies the existing steps into it, appends the
// new step, and returns a new Plan header. The original Plan's slice
// header still points at its own backing array and observes no change —
// the Go analogue of the copy-on-write, shared-ownership step list the
// builder is modeled on. Plan is safe to share and execute concurrently
// (e.g. as the snapshot handed to every sibling of a Parallel step)
// because nothing ever writes through an existing Plan value.
type Plan struct {
	steps []PlanStep
}

// NewPlan returns an empty plan.
func NewPlan() Plan {
	return Plan{}
}

// Steps returns the plan's steps. The returned slice must not be mutated;
// doing so would violate the immutability every Add* method relies on.
func (p Plan) Steps() []PlanStep { return p.steps }

// Len returns the number of steps in the plan.
func (p Plan) Len() int { return len(p.steps) }

// cloneAppend returns a new steps slice containing p.steps followed by step,
// never aliasing p.steps's backing array.
func (p Plan) cloneAppend(step PlanStep) []PlanStep {
	next := make([]PlanStep, len(p.steps)+1)
	copy(next, p.steps)
	next[len(p.steps)] = step
	return next
}

// AddWgsl returns a new Plan with a GPU compute step appended. params may
// be nil for shaders that declare no params storage buffer (bind group 1).
func (p Plan) AddWgsl(shader *ShaderModule, params []byte, outW, outH uint32) Plan {
	return Plan{steps: p.cloneAppend(PlanStep{
		Kind:      StepWgsl,
		Shader:    shader,
		Params:    params,
		OutWidth:  outW,
		OutHeight: outH,
	})}
}

// AddParallel returns a new Plan with a fan-out/fan-in step appended. Each
// sub-plan receives the state as of this point in the parent plan as its
// own initial state; their final states are concatenated in subPlans order.
func (p Plan) AddParallel(subPlans []Plan) Plan {
	subCopy := make([]Plan, len(subPlans))
	copy(subCopy, subPlans)
	return Plan{steps: p.cloneAppend(PlanStep{
		Kind:     StepParallel,
		SubPlans: subCopy,
	})}
}

// AddCpu returns a new Plan with a CPU-function step appended.
func (p Plan) AddCpu(fn *CpuFunction, params []byte, outW, outH uint32) Plan {
	return Plan{steps: p.cloneAppend(PlanStep{
		Kind:      StepCpu,
		Func:      fn,
		Params:    params,
		OutWidth:  outW,
		OutHeight: outH,
	})}
}
