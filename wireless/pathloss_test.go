package wireless

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wisim/rfidsim/sim"
	"github.com/wisim/rfidsim/stack"
)

func newTestPhy(
	t *testing.T,
	engine *sim.SerialEngine,
	manager *ChannelManager,
	loc stack.Location,
	id uint64,
) *PhysicalLayer {
	t.Helper()
	node := stack.NewNode(engine, loc, stack.NewNodeId(id))
	return NewPhysicalLayer(node, manager)
}

func TestPowerDecibelRoundTrip(t *testing.T) {
	for _, p := range []float64{1e-12, 1e-3, 1.0, 42.0} {
		assert.InEpsilon(t, p, DecibelsToPower(PowerToDecibels(p)), 1e-12)
	}

	assert.Panics(t, func() { PowerToDecibels(0) })
}

func TestFreeSpaceMatchesFriisEquation(t *testing.T) {
	engine := sim.NewSerialEngine()
	manager := NewChannelManager(engine)
	receiver := newTestPhy(t, engine, manager, stack.NewLocation(2, 0, 0), 1)

	pkt := stack.NewPacket()
	txPower := 1.0
	wavelength := SpeedOfLight / 960e6
	sig := NewCommSignal(stack.NewLocation(0, 0, 0),
		PowerToDecibels(txPower), wavelength, 1.0, pkt)

	model := NewFreeSpace()
	got := model.RecvdStrength(sig, receiver)

	want := txPower * 1.0 * 1.0 * wavelength * wavelength /
		(math.Pow(4*math.Pi, 2) * 4.0 * 1.0)
	assert.InEpsilon(t, want, got, 1e-9)
}

func TestFreeSpaceStrengthFallsWithSquaredDistance(t *testing.T) {
	engine := sim.NewSerialEngine()
	manager := NewChannelManager(engine)
	near := newTestPhy(t, engine, manager, stack.NewLocation(1, 0, 0), 1)
	far := newTestPhy(t, engine, manager, stack.NewLocation(2, 0, 0), 2)

	sig := NewCommSignal(stack.NewLocation(0, 0, 0),
		PowerToDecibels(1.0), 0.3, 1.0, stack.NewPacket())

	model := NewFreeSpace()
	assert.InEpsilon(t, 4.0,
		model.RecvdStrength(sig, near)/model.RecvdStrength(sig, far),
		1e-9)
}

func TestTwoRayUsesFreeSpaceWithinCrossover(t *testing.T) {
	engine := sim.NewSerialEngine()
	manager := NewChannelManager(engine)

	wavelength := SpeedOfLight / 960e6
	crossover := 4 * math.Pi * 1.5 * 1.5 / wavelength

	inside := newTestPhy(t, engine, manager,
		stack.NewLocation(crossover/2, 0, 0), 1)
	outside := newTestPhy(t, engine, manager,
		stack.NewLocation(crossover*2, 0, 0), 2)

	sig := NewCommSignal(stack.NewLocation(0, 0, 0),
		PowerToDecibels(1.0), wavelength, 1.0, stack.NewPacket())

	twoRay := NewTwoRay()
	freeSpace := NewFreeSpace()

	assert.InEpsilon(t,
		freeSpace.RecvdStrength(sig, inside),
		twoRay.RecvdStrength(sig, inside), 1e-9)

	wantOutside := 1.0 * math.Pow(1.5, 4) / math.Pow(crossover*2, 4)
	assert.InEpsilon(t, wantOutside,
		twoRay.RecvdStrength(sig, outside), 1e-9)
}

func TestFreeSpacePanicsOnCollocation(t *testing.T) {
	engine := sim.NewSerialEngine()
	manager := NewChannelManager(engine)
	receiver := newTestPhy(t, engine, manager, stack.NewLocation(0, 0, 0), 1)

	sig := NewCommSignal(stack.NewLocation(0, 0, 0),
		PowerToDecibels(1.0), 0.3, 1.0, stack.NewPacket())

	assert.Panics(t, func() {
		NewFreeSpace().RecvdStrength(sig, receiver)
	})
}

func TestLossFactorBelowOneFallsBackToDefault(t *testing.T) {
	engine := sim.NewSerialEngine()
	manager := NewChannelManager(engine)
	receiver := newTestPhy(t, engine, manager, stack.NewLocation(1, 0, 0), 1)

	sig := NewCommSignal(stack.NewLocation(0, 0, 0),
		PowerToDecibels(1.0), 0.3, 1.0, stack.NewPacket())

	plain := NewFreeSpace().RecvdStrength(sig, receiver)
	clamped := NewFreeSpaceWithLossFactor(0.1).RecvdStrength(sig, receiver)

	assert.InEpsilon(t, plain, clamped, 1e-12)
}
