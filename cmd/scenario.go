// Demo entities for the run subcommand. These are ordinary consumers of
// the kernel API, built the way domain actors would be: a pinger that
// behaves like a broker-class actor (it joins the shutdown barrier), and a
// ponger that answers every ping on the same simulated instant.

package cmd

import (
	"github.com/sirupsen/logrus"

	sim "github.com/cloudsim-go/cloudsim/sim"
)

const (
	tagPing = iota
	tagPong
)

type pinger struct {
	*sim.BaseEntity
	peerID   int
	rounds   int
	interval float64
	sent     int
}

func (p *pinger) Start() {
	p.sent++
	if err := p.Kernel().Send(p.ID(), p.peerID, p.interval, tagPing, p.sent); err != nil {
		logrus.Fatalf("pinger: %v", err)
	}
}

func (p *pinger) ProcessEvent(ev *sim.Event) {
	if ev.Tag() != tagPong {
		return
	}
	logrus.Debugf("pinger: pong %v at %g", ev.Data(), p.Kernel().Clock())
	if p.sent >= p.rounds {
		// Done: leave the shutdown barrier.
		p.Kernel().DecrementNumberOfUsers()
		return
	}
	p.sent++
	if err := p.Kernel().Send(p.ID(), p.peerID, p.interval, tagPing, p.sent); err != nil {
		logrus.Fatalf("pinger: %v", err)
	}
}

type ponger struct {
	*sim.BaseEntity
}

func (p *ponger) ProcessEvent(ev *sim.Event) {
	if ev.Tag() != tagPing {
		return
	}
	// Same-tick reply.
	if err := p.Kernel().SendNow(p.ID(), ev.Source(), tagPong, ev.Data()); err != nil {
		logrus.Fatalf("ponger: %v", err)
	}
}

// buildPingPongScenario registers the demo entities on the kernel. The
// pinger increments the user counter on creation, mirroring how brokers
// join the shutdown barrier.
func buildPingPongScenario(k *sim.Kernel, rounds int, interval float64) {
	pong := &ponger{BaseEntity: sim.NewBaseEntity(k, "ponger")}
	pongID := k.AddEntity(pong)

	ping := &pinger{
		BaseEntity: sim.NewBaseEntity(k, "pinger"),
		peerID:     pongID,
		rounds:     rounds,
		interval:   interval,
	}
	k.AddEntity(ping)
	k.IncrementNumberOfUsers()
}
