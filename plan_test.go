package pixelpipe

import "testing"

func TestPlanAddIsImmutable(t *testing.T) {
	base := NewPlan().AddWgsl(&ShaderModule{Id: "a"}, nil, 4, 4)
	if base.Len() != 1 {
		t.Fatalf("base.Len() = %d, want 1", base.Len())
	}

	extended := base.AddCpu(NewCpuFunction("b", nil), nil, 4, 4)
	if base.Len() != 1 {
		t.Fatalf("base.Len() mutated to %d after deriving extended plan", base.Len())
	}
	if extended.Len() != 2 {
		t.Fatalf("extended.Len() = %d, want 2", extended.Len())
	}
	if extended.Steps()[0].Shader.Id != "a" {
		t.Fatalf("extended plan lost its first step")
	}
}

func TestPlanCloneAppendDoesNotAliasBackingArray(t *testing.T) {
	p := NewPlan().AddWgsl(&ShaderModule{Id: "x"}, nil, 1, 1)
	p2 := p.AddWgsl(&ShaderModule{Id: "y"}, nil, 1, 1)
	p3 := p.AddWgsl(&ShaderModule{Id: "z"}, nil, 1, 1)

	if p2.Steps()[1].Shader.Id != "y" || p3.Steps()[1].Shader.Id != "z" {
		t.Fatalf("sibling plans derived from the same parent clobbered each other's second step: p2=%q p3=%q",
			p2.Steps()[1].Shader.Id, p3.Steps()[1].Shader.Id)
	}
}

func TestPlanAddParallelCopiesSubPlanSlice(t *testing.T) {
	subs := []Plan{NewPlan(), NewPlan()}
	p := NewPlan().AddParallel(subs)

	subs[0] = NewPlan().AddWgsl(&ShaderModule{Id: "mutated"}, nil, 1, 1)

	if p.Steps()[0].SubPlans[0].Len() != 0 {
		t.Fatalf("AddParallel aliased the caller's slice; mutating it after the call changed the plan")
	}
}
