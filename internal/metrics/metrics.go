package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "soil_monitor"

// Label names.
const (
	KindLabel   = "kind"
	ReasonLabel = "reason"
	ResultLabel = "result"
	TypeLabel   = "type"
)

var (
	UplinkCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uplink_total",
			Help:      "The total number of handled uplinks by frame kind",
		},
		[]string{KindLabel},
	)

	DecodeErrorCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_error_total",
			Help:      "The total number of rejected uplinks by reason",
		},
		[]string{ReasonLabel},
	)

	DownlinkCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downlink_total",
			Help:      "The total number of downlink attempts by result",
		},
		[]string{ResultLabel},
	)

	AlarmCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alarm_total",
			Help:      "The total number of station alarms by type",
		},
		[]string{TypeLabel},
	)

	InsertCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insert_total",
			Help:      "The total number of readings stored",
		},
	)
)
