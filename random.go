package main

import "math"

// Linear congruential generator constants, matching d3-random's randomLcg
const (
	lcgMul = 0x19660D
	lcgInc = 0x3C6EF35F
	lcgEps = 1.0 / 4294967296.0 // 2^-32
)

// Uniform is a source of uniform draws in [0, 1)
type Uniform interface {
	Float64() float64
}

// RootGenerator is the seeded uniform source that every rate generator of a sample draws from
type RootGenerator struct {
	state uint32
}

// NewRootGenerator creates a root generator. Seeds in [0, 1) are scaled to the full
// 32-bit state; anything else uses its truncated magnitude.
func NewRootGenerator(seed float64) *RootGenerator {
	var state uint32
	switch {
	case math.IsNaN(seed) || math.IsInf(seed, 0):
		state = 0
	case seed >= 0 && seed < 1:
		state = uint32(uint64(seed / lcgEps))
	default:
		state = uint32(uint64(math.Mod(math.Trunc(math.Abs(seed)), 4294967296)))
	}
	return &RootGenerator{state: state}
}

// Float64 advances the generator and returns the next value in [0, 1)
func (g *RootGenerator) Float64() float64 {
	g.state = lcgMul*g.state + lcgInc
	return float64(g.state) * lcgEps
}

// SampleSeed derives an independent seed in [0, 1) for one Monte Carlo sample,
// so trajectories never share a stream and can be built in any order.
func SampleSeed(seed float64, index int) float64 {
	z := math.Float64bits(seed) + uint64(index+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z ^= z >> 31
	return float64(z>>32) * lcgEps
}

// Generator draws growth multipliers for one quantity
type Generator struct {
	source Uniform
	kind   DistributionKind
	mu     float64
	sigma  float64

	// Polar Box-Muller yields two normals per accepted point; the second is kept here
	spare    float64
	radius   float64
	hasSpare bool
}

// NewGenerator derives a generator for dist from a uniform source.
// Mean and StdDev are in percent.
func NewGenerator(source Uniform, dist Distribution, kind DistributionKind) *Generator {
	g := &Generator{source: source, kind: kind}
	switch kind {
	case NormalDistribution:
		g.mu, g.sigma = dist.Mean, dist.StdDev
	default:
		g.mu, g.sigma = dist.Mean/100, dist.StdDev/100
	}
	return g
}

// Next returns the next growth multiplier, e.g. 1.03 for 3% growth
func (g *Generator) Next() float64 {
	draw := g.normal()
	if g.kind == NormalDistribution {
		return 1 + draw/100
	}
	return math.Exp(draw)
}

func (g *Generator) normal() float64 {
	var y float64
	if g.hasSpare {
		y = g.spare
		g.hasSpare = false
	} else {
		var x, r float64
		for {
			x = g.source.Float64()*2 - 1
			y = g.source.Float64()*2 - 1
			r = x*x + y*y
			if r != 0 && r <= 1 {
				break
			}
		}
		g.spare = x
		g.radius = r
		g.hasSpare = true
	}
	r := g.radius
	return g.mu + g.sigma*y*math.Sqrt(-2*math.Log(r)/r)
}

// rateGenerators holds the five generators of one sample
type rateGenerators struct {
	inflation *Generator
	stock     *Generator
	salary    *Generator
	rent      *Generator
	house     *Generator
}

func newRateGenerators(root Uniform, dists Distributions, kind DistributionKind) *rateGenerators {
	return &rateGenerators{
		inflation: NewGenerator(root, dists.Inflation, kind),
		stock:     NewGenerator(root, dists.StockAppreciation, kind),
		salary:    NewGenerator(root, dists.SalaryGrowth, kind),
		rent:      NewGenerator(root, dists.RentGrowth, kind),
		house:     NewGenerator(root, dists.HouseAppreciation, kind),
	}
}

// draw consumes one year of draws in a fixed order
func (rg *rateGenerators) draw() YearDraws {
	var d YearDraws
	d.Inflation = rg.inflation.Next()
	d.Salary = rg.salary.Next()
	d.Stock = rg.stock.Next()
	d.House = rg.house.Next()
	d.Rent = rg.rent.Next()
	return d
}
