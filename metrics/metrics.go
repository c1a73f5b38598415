// Package metrics exposes the process's prometheus counters and
// gauges: rooms active, members connected, answers accepted,
// broadcast drops, reconnection slots open.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups every counter/gauge the rest of the process updates.
type Metrics struct {
	RoomsActive          prometheus.Gauge
	MembersConnected     prometheus.Gauge
	AnswersAccepted      prometheus.Counter
	BroadcastDrops       prometheus.Counter
	ReconnectionSlotsOpen prometheus.Gauge
}

// New registers and returns the metric set against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RoomsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trivion_rooms_active",
			Help: "Number of rooms currently live.",
		}),
		MembersConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trivion_members_connected",
			Help: "Number of members with a live connection across all rooms.",
		}),
		AnswersAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trivion_answers_accepted_total",
			Help: "Total accepted answers across all rooms.",
		}),
		BroadcastDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trivion_broadcast_drops_total",
			Help: "Total subscribers dropped due to a failed send.",
		}),
		ReconnectionSlotsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trivion_reconnection_slots_open",
			Help: "Number of members currently within their reconnection window.",
		}),
	}
	reg.MustRegister(m.RoomsActive, m.MembersConnected, m.AnswersAccepted, m.BroadcastDrops, m.ReconnectionSlotsOpen)
	return m
}
