package workload

import "github.com/vango-dev/reactor/pkg/reactive"

func init() {
	register(Workload{
		Name:        "chain",
		Description: "one signal feeding a linear chain of memos",
		build:       buildChain,
	})
	register(Workload{
		Name:        "diamond",
		Description: "one signal fanning out to memos that join in one memo",
		build:       buildDiamond,
	})
	register(Workload{
		Name:        "fan",
		Description: "one signal read directly by many effects",
		build:       buildFan,
	})
	register(Workload{
		Name:        "dynamic",
		Description: "memos switching between two sources on a flag",
		build:       buildDynamic,
	})
	register(Workload{
		Name:        "batch",
		Description: "many signals written together in one batch",
		build:       buildBatch,
	})
}

// sink creates the effect that observes r and returns its reader.
func sink(rt *reactive.Runtime, r reactive.Readable[int]) func() int {
	var last int
	reactive.CreateEffect(rt, func() reactive.Cleanup {
		last = r.Get()
		return nil
	}, reactive.EffectName("sink"))
	return func() int { return last }
}

func buildChain(rt *reactive.Runtime, size int) *Instance {
	src := reactive.NewSignal(rt, 0).Named("source")
	var prev reactive.Readable[int] = src
	for i := 0; i < size; i++ {
		p := prev
		prev = reactive.NewMemo(rt, func() int { return p.Get() + 1 })
	}
	return &Instance{
		Step:  func(i int) error { return src.Set(i + 1) },
		Sink:  sink(rt, prev),
		Nodes: size + 2,
	}
}

func buildDiamond(rt *reactive.Runtime, size int) *Instance {
	src := reactive.NewSignal(rt, 0).Named("source")
	arms := make([]*reactive.Memo[int], size)
	for i := range arms {
		k := i + 1
		arms[i] = reactive.NewMemo(rt, func() int { return src.Get() * k })
	}
	join := reactive.NewMemo(rt, func() int {
		total := 0
		for _, a := range arms {
			total += a.Get()
		}
		return total
	}).Named("join")
	return &Instance{
		Step:  func(i int) error { return src.Set(i + 1) },
		Sink:  sink(rt, join),
		Nodes: size + 3,
	}
}

func buildFan(rt *reactive.Runtime, size int) *Instance {
	src := reactive.NewSignal(rt, 0).Named("source")
	for i := 0; i < size-1; i++ {
		reactive.CreateEffect(rt, func() reactive.Cleanup {
			src.Get()
			return nil
		})
	}
	last := sink(rt, src)
	return &Instance{
		Step:  func(i int) error { return src.Set(i + 1) },
		Sink:  last,
		Nodes: size + 1,
	}
}

func buildDynamic(rt *reactive.Runtime, size int) *Instance {
	flag := reactive.NewSignal(rt, true).Named("flag")
	a := reactive.NewSignal(rt, 0).Named("a")
	b := reactive.NewSignal(rt, 0).Named("b")
	picks := make([]*reactive.Memo[int], size)
	for i := range picks {
		picks[i] = reactive.NewMemo(rt, func() int {
			if flag.Get() {
				return a.Get()
			}
			return b.Get()
		})
	}
	sum := reactive.NewMemo(rt, func() int {
		total := 0
		for _, p := range picks {
			total += p.Get()
		}
		return total
	}).Named("sum")
	return &Instance{
		Step: func(i int) error {
			switch i % 3 {
			case 0:
				return reactive.Toggle(flag)
			case 1:
				return reactive.Inc(a)
			default:
				return reactive.Inc(b)
			}
		},
		Sink:  sink(rt, sum),
		Nodes: size + 5,
	}
}

func buildBatch(rt *reactive.Runtime, size int) *Instance {
	signals := make([]*reactive.Signal[int], size)
	for i := range signals {
		signals[i] = reactive.NewSignal(rt, 0)
	}
	sum := reactive.NewMemo(rt, func() int {
		total := 0
		for _, s := range signals {
			total += s.Get()
		}
		return total
	}).Named("sum")
	return &Instance{
		Step: func(i int) error {
			return rt.Batch(func() {
				for _, s := range signals {
					_ = s.Set(i + 1)
				}
			})
		},
		Sink:  sink(rt, sum),
		Nodes: size + 2,
	}
}
