package qnode

import (
	"github.com/quanta-ml/quanta/internal/circuit"
)

// occPlan is the analyzer's per-occurrence verdict, precomputed once per
// program and consumed by the differentiators on every gradient call.
type occPlan struct {
	occ      Occurrence
	recipe   circuit.Recipe
	analytic bool
	// order2 marks occurrences whose descendant cone contains a
	// second-order observable; the plain two-point rule on device values is
	// not exact there and the Heisenberg-transform formula is used instead.
	order2 bool
	// descOps lists the Gaussian operations after the owning gate inside
	// its light cone, in program order, for order-2 conjugation.
	descOps []int
}

// analysis is the resolved differentiability of one program: the realized
// per-parameter method (weakest link over occurrences) and the occurrence
// plans behind it.
type analysis struct {
	methods []Method
	plans   [][]occPlan
}

// analyze runs the decision rule from the registry's occurrence lists.
// A parameter is analytic only if every occurrence is affine and every
// occurrence supports a shift recipe; one non-shiftable occurrence forces
// the whole partial onto finite differences, because contributions to a
// single scalar derivative cannot mix methods.
func analyze(prog *circuit.Program, reg *Registry) *analysis {
	n := reg.NumParams()
	a := &analysis{
		methods: make([]Method, n),
		plans:   make([][]occPlan, n),
	}

	for i := 0; i < n; i++ {
		occs, _ := reg.Occurrences(i)
		method := MethodAnalytic
		plans := make([]occPlan, 0, len(occs))

		for _, occ := range occs {
			pl := planOccurrence(prog, occ)
			if !pl.analytic {
				method = MethodFinite
			}
			plans = append(plans, pl)
		}

		a.methods[i] = method
		a.plans[i] = plans
	}
	return a
}

func planOccurrence(prog *circuit.Program, occ Occurrence) occPlan {
	pl := occPlan{occ: occ}
	if !occ.Affine {
		return pl
	}

	if occ.Kind == OccObsCoeff {
		obs := prog.Observables()[occ.Obs]
		pl.analytic = obs.AnalyticCoefficients()
		return pl
	}

	op := prog.Operations()[occ.Op]
	recipe, ok := op.Kind.RecipeFor(occ.Pos)
	if !ok {
		return pl
	}

	descOps, secondOrder, gaussianCone := lightCone(prog, occ.Op)
	if !gaussianCone {
		// A non-Gaussian gate in the cone breaks the Heisenberg-picture
		// propagation the analytic rules rely on.
		return pl
	}

	pl.analytic = true
	pl.recipe = recipe
	pl.order2 = secondOrder
	pl.descOps = descOps
	return pl
}

// lightCone walks the operations after opIdx that are causally connected
// to it through shared wires. It returns those operations, whether any
// observable in the cone is second order, and whether every gate in the
// cone is Gaussian.
func lightCone(prog *circuit.Program, opIdx int) (descOps []int, secondOrder, gaussianCone bool) {
	gaussianCone = true
	cone := make(map[int]bool)
	for _, w := range prog.Operations()[opIdx].Wires {
		cone[w] = true
	}

	ops := prog.Operations()
	for j := opIdx + 1; j < len(ops); j++ {
		if !touches(ops[j].Wires, cone) {
			continue
		}
		descOps = append(descOps, j)
		if !ops[j].Kind.Gaussian() {
			gaussianCone = false
		}
		for _, w := range ops[j].Wires {
			cone[w] = true
		}
	}

	for _, obs := range prog.Observables() {
		if touches(observableWires(obs), cone) && obs.SecondOrder() {
			secondOrder = true
		}
	}
	return descOps, secondOrder, gaussianCone
}

func observableWires(obs circuit.Observable) []int {
	if obs.Kind() == circuit.ObsPoly {
		return obs.Wires()
	}
	return []int{obs.Wire()}
}

func touches(wires []int, cone map[int]bool) bool {
	for _, w := range wires {
		if cone[w] {
			return true
		}
	}
	return false
}
