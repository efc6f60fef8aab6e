package utils

import (
	"strconv"
	"strings"
	"sync"
	"time"

	shared "github.com/smartwaste/bin-registry/shared/go-utils"
)

const (
	binIDPrefix       = "BIN-"
	binIDSuffixLength = 3
)

// BinIDGenerator produces BIN-<base36 ms>-<3 random base36> identifiers.
// The timestamp part never repeats or goes backwards within one generator,
// even if the wall clock does.
type BinIDGenerator struct {
	mu     sync.Mutex
	now    func() time.Time
	random func(n int) string
	lastMS int64
}

func NewBinIDGenerator() *BinIDGenerator {
	return &BinIDGenerator{now: time.Now, random: shared.RandomBase36String}
}

// NewBinIDGeneratorWithClock is used by tests to pin the clock.
func NewBinIDGeneratorWithClock(now func() time.Time) *BinIDGenerator {
	return &BinIDGenerator{now: now, random: shared.RandomBase36String}
}

func (g *BinIDGenerator) Generate() string {
	g.mu.Lock()
	ms := g.now().UnixMilli()
	if ms <= g.lastMS {
		ms = g.lastMS + 1
	}
	g.lastMS = ms
	g.mu.Unlock()

	return strings.ToUpper(binIDPrefix + strconv.FormatInt(ms, 36) + "-" + g.random(binIDSuffixLength))
}

var defaultBinIDGenerator = NewBinIDGenerator()

// GenerateBinID draws from the process-wide generator.
func GenerateBinID() string {
	return defaultBinIDGenerator.Generate()
}
