// Package cmd provides command implementations for the hmi-core daemon.
package cmd

import (
	"github.com/coldwatch/hmi-core/daemon/domain"
	"github.com/coldwatch/hmi-core/daemon/services"
)

// Boot represents the boot command that starts the alert core.
type Boot struct{}

// Run executes the boot command by creating and running the orchestrator.
func (b *Boot) Run(ctx *domain.Context) error {
	return services.CreateOrchestrator(ctx).Run()
}
