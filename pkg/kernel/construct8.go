package kernel

// Construct8Template is the restricted template CONSTRUCT8 compiles from:
// predicate and object may each be fixed at compile time or left to pass
// through the corresponding input lane. The hot path admits only this
// restricted emitter; arbitrary CONSTRUCT is a warm-path operation that
// never runs inside evaluate().
type Construct8Template struct {
	PredFixed bool
	Pred      uint64
	ObjFixed  bool
	Obj       uint64
}

// Construct8 emits at most 8 output triples into out from the pinned
// input run, applying the template to every active lane. The subject is
// always carried through from the input. Inactive lanes (index >= in.Len)
// are skipped, not merely masked, since the caller-visible output length
// must not exceed in.Len. out is reset before writing.
//
// Predicate mismatch (template.PredFixed and the lane's predicate
// differs) produces no output triple for that lane and is not an error;
// the caller sees a shorter out.Len, never a fault.
func Construct8(tmpl Construct8Template, in *PinnedRun, out *PinnedRun) {
	out.Reset()
	for i := 0; i < int(in.Len); i++ {
		pred := in.P[i]
		if tmpl.PredFixed {
			if pred != tmpl.Pred {
				continue
			}
		}
		obj := in.O[i]
		if tmpl.ObjFixed {
			obj = tmpl.Obj
		}
		out.Push(Triple{S: in.S[i], P: pred, O: obj})
	}
}
