package simulation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wisim/rfidsim/rng"
	"github.com/wisim/rfidsim/sim"
	"github.com/wisim/rfidsim/stack"
	"github.com/wisim/rfidsim/wireless"
)

// ChannelSpec describes one wireless channel of a scenario.
type ChannelSpec struct {
	Id         int     `yaml:"id"`
	PathLoss   string  `yaml:"pathloss"`
	LossFactor float64 `yaml:"lossfactor,omitempty"`
	Fading     string  `yaml:"fading,omitempty"`
}

// ReaderSpec describes one RFID reader of a scenario.
type ReaderSpec struct {
	Id             uint64     `yaml:"id"`
	Position       [3]float64 `yaml:"position"`
	RegularChannel int        `yaml:"regularchannel"`
	PowerLevels    int        `yaml:"powerlevels,omitempty"`
	ReadPeriod     float64    `yaml:"readperiod,omitempty"`
	RepeatedReads  bool       `yaml:"repeatedreads,omitempty"`
	SkipReset      bool       `yaml:"skipreset,omitempty"`
	NumSlots       int        `yaml:"numslots,omitempty"`
	CycleTime      float64    `yaml:"cycletime,omitempty"`
	Start          float64    `yaml:"start"`
	Stop           float64    `yaml:"stop,omitempty"`
}

// TagSpec describes one RFID tag of a scenario.
type TagSpec struct {
	Id       uint64     `yaml:"id"`
	Position [3]float64 `yaml:"position"`
	Start    float64    `yaml:"start,omitempty"`
}

// Scenario is the YAML description of a complete simulation setup.
type Scenario struct {
	Name              string        `yaml:"name,omitempty"`
	StopTime          float64       `yaml:"stoptime"`
	AllReadersChannel int           `yaml:"allreaderschannel"`
	Channels          []ChannelSpec `yaml:"channels"`
	Readers           []ReaderSpec  `yaml:"readers"`
	Tags              []TagSpec     `yaml:"tags"`
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	var scn Scenario
	if err := yaml.Unmarshal(raw, &scn); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}

	if err := scn.validate(); err != nil {
		return nil, err
	}

	return &scn, nil
}

func (scn *Scenario) validate() error {
	if scn.StopTime <= 0 {
		return fmt.Errorf("scenario stop time must be positive")
	}

	channelIds := make(map[int]bool)
	for _, ch := range scn.Channels {
		if channelIds[ch.Id] {
			return fmt.Errorf("channel %d is defined twice", ch.Id)
		}
		channelIds[ch.Id] = true
	}

	if !channelIds[scn.AllReadersChannel] {
		return fmt.Errorf("the all-readers channel %d is not defined",
			scn.AllReadersChannel)
	}

	for _, r := range scn.Readers {
		if !channelIds[r.RegularChannel] {
			return fmt.Errorf("reader %d uses undefined channel %d",
				r.Id, r.RegularChannel)
		}
	}

	return nil
}

// Apply builds the scenario's channels and node stacks into the simulation
// and schedules the application epochs.
func (scn *Scenario) Apply(s *Simulation) error {
	fadingRandom := rng.New("fading")

	for _, spec := range scn.Channels {
		channel, err := buildChannel(s.Engine(), fadingRandom, spec)
		if err != nil {
			return err
		}
		s.AddChannel(spec.Id, channel)
	}

	for _, spec := range scn.Readers {
		reader := s.BuildReader(
			stack.NewLocation(spec.Position[0], spec.Position[1],
				spec.Position[2]),
			stack.NewNodeId(spec.Id),
			scn.AllReadersChannel,
			spec.RegularChannel,
		)

		if spec.PowerLevels > 0 {
			reader.App.SetNumPowerControlLevels(spec.PowerLevels)
		}
		if spec.ReadPeriod > 0 {
			reader.App.SetReadPeriod(sim.VTimeInSec(spec.ReadPeriod))
		}
		reader.App.SetDoRepeatedReads(spec.RepeatedReads)
		reader.App.SetDoReset(!spec.SkipReset)
		if spec.NumSlots > 0 {
			reader.Mac.SetNextCycleNumberOfSlots(spec.NumSlots)
		}
		if spec.CycleTime > 0 {
			reader.Mac.SetNextCycleTime(sim.VTimeInSec(spec.CycleTime))
		}

		reader.App.Start(sim.VTimeInSec(spec.Start))
		if spec.Stop > 0 {
			reader.App.Stop(sim.VTimeInSec(spec.Stop))
		}
	}

	for _, spec := range scn.Tags {
		tag := s.BuildTag(
			stack.NewLocation(spec.Position[0], spec.Position[1],
				spec.Position[2]),
			stack.NewNodeId(spec.Id),
			scn.AllReadersChannel,
		)

		tag.App.Start(sim.VTimeInSec(spec.Start))
	}

	return nil
}

func buildChannel(
	engine sim.Engine,
	fadingRandom *rng.Generator,
	spec ChannelSpec,
) (*wireless.Channel, error) {
	var pathLoss wireless.PathLossModel
	switch spec.PathLoss {
	case "", "tworay":
		if spec.LossFactor > 0 {
			pathLoss = wireless.NewTwoRayWithLossFactor(spec.LossFactor)
		} else {
			pathLoss = wireless.NewTwoRay()
		}
	case "freespace":
		if spec.LossFactor > 0 {
			pathLoss = wireless.NewFreeSpaceWithLossFactor(spec.LossFactor)
		} else {
			pathLoss = wireless.NewFreeSpace()
		}
	default:
		return nil, fmt.Errorf("unknown path loss model %q", spec.PathLoss)
	}

	switch spec.Fading {
	case "", "none":
		return wireless.NewChannel(pathLoss), nil
	case "ricean":
		return wireless.NewChannelWithFading(pathLoss,
			wireless.NewRicean(engine, fadingRandom)), nil
	case "rayleigh":
		return wireless.NewChannelWithFading(pathLoss,
			wireless.NewRayleigh(engine, fadingRandom)), nil
	default:
		return nil, fmt.Errorf("unknown fading model %q", spec.Fading)
	}
}
