package pde_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pdesim/internal/integrators"
	"github.com/san-kum/pdesim/internal/laplacian"
	"github.com/san-kum/pdesim/internal/pde"
	"github.com/san-kum/pdesim/internal/rhs"
)

func heat1D(n int, dx, alpha float64, stepper pde.Stepper, opts ...pde.Option) *pde.System {
	op, err := laplacian.Laplacian1D(n, dx)
	Expect(err).NotTo(HaveOccurred())
	sys, err := pde.New(rhs.Linear(op, alpha), stepper, op.Size(), opts...)
	Expect(err).NotTo(HaveOccurred())
	return sys
}

func gaussian(n int, dx float64) pde.State {
	u := make(pde.State, n)
	l := float64(n) * dx
	for i := range u {
		x := float64(i)*dx - l/2
		u[i] = math.Exp(-x * x / 0.5)
	}
	return u
}

func sum(u pde.State) float64 {
	s := 0.0
	for _, v := range u {
		s += v
	}
	return s
}

func maxAbs(u pde.State) float64 {
	m := 0.0
	for _, v := range u {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

type failingRecorder struct {
	calls, failAt int
}

func (r *failingRecorder) Track(pde.State, float64) error {
	r.calls++
	if r.calls == r.failAt {
		return errors.New("disk full")
	}
	return nil
}

var _ = Describe("System", func() {
	var (
		euler pde.Stepper
		rk4   pde.Stepper
	)

	BeforeEach(func() {
		euler = integrators.NewEuler()
		rk4 = integrators.NewRK4()
	})

	Describe("construction", func() {
		It("rejects a nil rhs or stepper", func() {
			_, err := pde.New(nil, euler, 4)
			Expect(err).To(HaveOccurred())

			op, _ := laplacian.Laplacian1D(4, 1)
			_, err = pde.New(rhs.Linear(op, 1), nil, 4)
			Expect(err).To(HaveOccurred())
		})

		It("rejects a non-positive size", func() {
			op, _ := laplacian.Laplacian1D(4, 1)
			_, err := pde.New(rhs.Linear(op, 1), euler, 0)
			Expect(err).To(MatchError(pde.ErrShapeMismatch))
		})
	})

	Describe("Evolve", func() {
		It("returns a copy of u0 for zero steps", func() {
			sys := heat1D(10, 0.1, 1, rk4)
			u0 := gaussian(10, 0.1)

			h, err := sys.Evolve(u0, 0.001, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(HaveLen(1))
			Expect(h[0]).To(Equal(u0))

			h[0][0] = 42
			Expect(u0[0]).NotTo(Equal(42.0))
		})

		It("produces steps+1 states without touching u0", func() {
			sys := heat1D(16, 0.1, 1, euler)
			u0 := gaussian(16, 0.1)
			orig := u0.Clone()

			h, err := sys.Evolve(u0, 1e-4, 25)
			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(HaveLen(26))
			Expect(u0).To(Equal(orig))
			Expect(h.Final()).To(HaveLen(16))
		})

		It("rejects an initial state of the wrong size", func() {
			sys := heat1D(10, 0.1, 1, euler)
			_, err := sys.Evolve(make(pde.State, 9), 0.001, 3)
			Expect(errors.Is(err, pde.ErrShapeMismatch)).To(BeTrue())
		})

		DescribeTable("rejects invalid step parameters",
			func(dt float64, steps int) {
				sys := heat1D(10, 0.1, 1, euler)
				_, err := sys.Evolve(make(pde.State, 10), dt, steps)
				Expect(errors.Is(err, pde.ErrInvalidStep)).To(BeTrue())
			},
			Entry("zero dt", 0.0, 5),
			Entry("negative dt", -0.1, 5),
			Entry("NaN dt", math.NaN(), 5),
			Entry("infinite dt", math.Inf(1), 5),
			Entry("negative steps", 0.1, -1),
		)

		It("is deterministic", func() {
			sys := heat1D(32, 0.1, 0.7, rk4)
			u0 := gaussian(32, 0.1)

			a, err := sys.Evolve(u0, 1e-3, 200)
			Expect(err).NotTo(HaveOccurred())
			b, err := sys.Evolve(u0, 1e-3, 200)
			Expect(err).NotTo(HaveOccurred())

			Expect(a).To(HaveLen(len(b)))
			for i := range a {
				Expect(a[i].Equal(b[i])).To(BeTrue(), "state %d differs", i)
			}
		})

		It("lets NaN propagate into the history", func() {
			sys := heat1D(8, 1, 1, euler)
			u0 := make(pde.State, 8)
			u0[2] = math.NaN()

			h, err := sys.Evolve(u0, 0.1, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(h.Final().IsValid()).To(BeFalse())
		})
	})

	Describe("mass conservation", func() {
		DescribeTable("keeps Σu constant",
			func(name string) {
				stepper, err := integrators.New(name)
				Expect(err).NotTo(HaveOccurred())

				dx := 0.1
				sys := heat1D(64, dx, 1, stepper)
				u0 := gaussian(64, dx)

				h, err := sys.Evolve(u0, 1e-3, 400)
				Expect(err).NotTo(HaveOccurred())
				Expect(sum(h.Final())).To(BeNumerically("~", sum(u0), 1e-10))
			},
			Entry("euler", "euler"),
			Entry("rk4", "rk4"),
		)

		It("holds in 2D", func() {
			op, err := laplacian.Laplacian2D(12, 10, 0.2, 0.25)
			Expect(err).NotTo(HaveOccurred())
			sys, err := pde.New(rhs.Linear(op, 0.5), rk4, op.Size())
			Expect(err).NotTo(HaveOccurred())

			u0 := make(pde.State, op.Size())
			for k := range u0 {
				u0[k] = math.Sin(float64(k)) + 1
			}
			h, err := sys.Evolve(u0, 1e-3, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(sum(h.Final())).To(BeNumerically("~", sum(u0), 1e-10))
		})
	})

	Describe("order of accuracy", func() {
		// A single Fourier mode is an eigenvector of the periodic Laplacian,
		// so the semi-discrete solution is exp(λt)·u0 exactly.
		const n = 32
		dx := 2 * math.Pi / n
		lambda := -4 / (dx * dx) * math.Pow(math.Sin(math.Pi/n), 2)

		mode := func() pde.State {
			u := make(pde.State, n)
			for i := range u {
				u[i] = math.Sin(2 * math.Pi * float64(i) / n)
			}
			return u
		}

		errorAt := func(stepper pde.Stepper, dt float64) float64 {
			sys := heat1D(n, dx, 1, stepper)
			u0 := mode()
			steps := int(math.Round(1 / dt))
			h, err := sys.Evolve(u0, dt, steps)
			Expect(err).NotTo(HaveOccurred())

			decay := math.Exp(lambda * float64(steps) * dt)
			worst := 0.0
			for i, v := range h.Final() {
				worst = math.Max(worst, math.Abs(v-decay*u0[i]))
			}
			return worst
		}

		It("is first order for euler", func() {
			ratio := errorAt(euler, 0.1) / errorAt(euler, 0.05)
			Expect(ratio).To(BeNumerically(">=", 1.9))
			Expect(ratio).To(BeNumerically("<=", 2.2))
		})

		It("is fourth order for rk4", func() {
			ratio := errorAt(rk4, 0.1) / errorAt(rk4, 0.05)
			Expect(ratio).To(BeNumerically(">=", 14))
			Expect(ratio).To(BeNumerically("<=", 19))
		})
	})

	Describe("stability", func() {
		const steps = 500

		delta := func() pde.State {
			u := make(pde.State, 8)
			u[3] = 1
			return u
		}

		It("diverges with euler above 2/ρ", func() {
			h, err := heat1D(8, 1, 1, euler).Evolve(delta(), 0.6, steps)
			Expect(err).NotTo(HaveOccurred())
			Expect(maxAbs(h.Final())).To(BeNumerically(">", 1e10))
		})

		It("stays bounded with rk4 at the same dt", func() {
			h, err := heat1D(8, 1, 1, rk4).Evolve(delta(), 0.6, steps)
			Expect(err).NotTo(HaveOccurred())
			for _, u := range h {
				Expect(maxAbs(u)).To(BeNumerically("<=", 1))
			}
		})
	})

	Describe("EvolveContext", func() {
		It("stops at a step boundary when cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			h, err := heat1D(8, 1, 1, euler).EvolveContext(ctx, delta8(), 0.1, 5)
			Expect(err).To(MatchError(context.Canceled))
			Expect(h).To(BeNil())
		})

		It("cancels from inside a step hook", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			calls := 0
			hook := func(pde.State, float64) {
				calls++
				if calls == 3 {
					cancel()
				}
			}
			sys := heat1D(8, 1, 1, euler, pde.WithStepHook(hook))

			_, err := sys.EvolveContext(ctx, delta8(), 0.1, 100)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(calls).To(Equal(3))
		})
	})

	Describe("hooks and recorders", func() {
		It("calls the step hook once per step with the step time", func() {
			var times []float64
			hook := func(_ pde.State, t float64) { times = append(times, t) }
			sys := heat1D(8, 1, 1, rk4, pde.WithStepHook(hook))

			_, err := sys.Evolve(delta8(), 0.25, 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(times).To(Equal([]float64{0, 0.25, 0.5, 0.75}))
		})

		It("does not change the numerics", func() {
			plain, err := heat1D(8, 1, 1, rk4).Evolve(delta8(), 0.1, 20)
			Expect(err).NotTo(HaveOccurred())

			hooked := heat1D(8, 1, 1, rk4, pde.WithStepHook(func(pde.State, float64) {}))
			h, err := hooked.Evolve(delta8(), 0.1, 20)
			Expect(err).NotTo(HaveOccurred())
			Expect(h.Final().Equal(plain.Final())).To(BeTrue())
		})

		It("wraps recorder failures in a StepError", func() {
			rec := &failingRecorder{failAt: 3}
			sys := heat1D(8, 1, 1, euler, pde.WithRecorder(rec))

			h, err := sys.Evolve(delta8(), 0.1, 10)
			Expect(h).To(BeNil())

			var stepErr *pde.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Step).To(Equal(2))
			Expect(stepErr.Time).To(BeNumerically("~", 0.2, 1e-12))
			Expect(err.Error()).To(ContainSubstring("disk full"))
		})

		It("records the initial state and every step", func() {
			rec := &failingRecorder{failAt: -1}
			sys := heat1D(8, 1, 1, euler, pde.WithRecorder(rec))

			_, err := sys.Evolve(delta8(), 0.1, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.calls).To(Equal(11))
		})
	})
})

func delta8() pde.State {
	u := make(pde.State, 8)
	u[3] = 1
	return u
}
