package simulator

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const randomFloatDivisor = 1000000

// Lines the real firmware has been seen to emit besides readings.
var noiseLines = []string{
	"abc:xyz",
	"99:500",
	"",
	"BOOT OK",
	"3:",
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func getRandomInt(upper int) int {
	if upper <= 0 {
		return 0
	}
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(upper)))
	return int(n.Int64())
}

// Generator yields the lines a board would print.
type Generator struct {
	script []string
	next   int
	cfg    Config
}

// NewGenerator returns a generator that replays the script first.
func NewGenerator(cfg Config) *Generator {
	cfg.withDefaults()
	return &Generator{script: cfg.Script, cfg: cfg}
}

// Next returns the next line. ok is false once the script is exhausted and
// random output is disabled.
func (g *Generator) Next() (line string, ok bool) {
	if g.next < len(g.script) {
		line = g.script[g.next]
		g.next++
		return line, true
	}
	if !g.cfg.Random {
		return "", false
	}
	if g.cfg.NoiseRate > 0 && getRandomFloat() < g.cfg.NoiseRate {
		return noiseLines[getRandomInt(len(noiseLines))], true
	}
	return Reading(getRandomInt(g.cfg.Sensors), getRandomInt(g.cfg.MaxPress+1)), true
}

// Reading formats one sensor line.
func Reading(sensorID, pressure int) string {
	return strconv.Itoa(sensorID) + ":" + strconv.Itoa(pressure)
}
