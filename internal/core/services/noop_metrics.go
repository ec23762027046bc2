package services

import (
	"time"

	"github.com/lorrc/chamados/internal/core/ports"
)

// NoopMetrics discards every measurement.
type NoopMetrics struct{}

var _ ports.MetricsRecorder = NoopMetrics{}

func (NoopMetrics) TicketCreated(string) {}
func (NoopMetrics) TicketClosed(string, time.Duration) {}
func (NoopMetrics) TicketsReset(int64) {}
func (NoopMetrics) DirectoryReloaded(bool, int) {}
