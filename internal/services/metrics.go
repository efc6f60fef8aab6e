package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	binsRegisteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "smartwaste",
		Subsystem: "bins",
		Name:      "registered_total",
		Help:      "Bins successfully registered.",
	})

	qrDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartwaste",
		Subsystem: "bins",
		Name:      "qr_decisions_total",
		Help:      "QR payload decisions taken on edit, by outcome.",
	}, []string{"decision"})

	stickerRendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartwaste",
		Subsystem: "stickers",
		Name:      "renders_total",
		Help:      "Sticker requests by format and cache outcome.",
	}, []string{"format", "cache"})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "smartwaste",
		Subsystem: "notifications",
		Name:      "sent_total",
		Help:      "Registration notifications by channel and result.",
	}, []string{"channel", "result"})
)
