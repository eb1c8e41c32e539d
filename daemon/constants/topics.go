package constants

import (
	"github.com/coldwatch/hmi-core/daemon/domain"
	"github.com/coldwatch/hmi-core/daemon/dto"
)

// Typed event bus topics. Each Topic[T] enforces at compile time that publishers
// send the correct Go type, eliminating a class of runtime type-assertion bugs.

var (
	// TopicAlertAdded is published by the alert store with dto.Alert whenever
	// an alert is upserted: on every Upsert call, including one that
	// re-writes an existing id with identical fields.
	TopicAlertAdded = domain.NewTopic[dto.Alert]("alerts://added")
	// TopicAlertRemoved is published by the alert store with dto.AlertRemoved
	// whenever an alert is explicitly removed.
	TopicAlertRemoved = domain.NewTopic[dto.AlertRemoved]("alerts://removed")
	// TopicMuteChanged is published by the mute controller with dto.MuteStatus
	// on every status transition: toggle, tick-expiry, and force_clear.
	TopicMuteChanged = domain.NewTopic[dto.MuteStatus]("alerts://mute_changed")
	// TopicDeviceStatusChanged is published by the database source loop with
	// dto.DeviceStatusUpdate on every accepted payload, whether or not the
	// 6-slot status vector changed.
	TopicDeviceStatusChanged = domain.NewTopic[dto.DeviceStatusUpdate]("device://status_changed")
)
